// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package block

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"

	"github.com/SnellerInc/blockagg/value"
)

// Bool is a homogeneous block of Booleans
// stored as a bitset. It doubles as the usual
// representation of a row selection.
type Bool struct {
	bits *bitset.BitSet
	n    int
}

// NewBoolBlock returns a block holding bools.
func NewBoolBlock(bools ...bool) *Bool {
	bs := bitset.New(uint(len(bools)))
	for i, b := range bools {
		if b {
			bs.Set(uint(i))
		}
	}
	return &Bool{bits: bs, n: len(bools)}
}

// NewBoolBlockFromBits returns a block of n rows
// whose true rows are the set bits of bs.
// The block takes ownership of bs.
func NewBoolBlockFromBits(bs *bitset.BitSet, n int) *Bool {
	return &Bool{bits: bs, n: n}
}

func (b *Bool) Count() int { return b.n }

func (b *Bool) At(i int) value.Value { return value.Bool(b.bits.Test(uint(i))) }

func (b *Bool) Extract() ([]value.Value, error) {
	out := make([]value.Value, b.n)
	for i := range out {
		out[i] = b.At(i)
	}
	return out, nil
}

// Bits returns the underlying bitset.
// It must not be modified.
func (b *Bool) Bits() *bitset.BitSet { return b.bits }

// AllTrue returns true if every row is true.
func (b *Bool) AllTrue() bool { return int(b.bits.Count()) == b.n }

// AllFalse returns true if no row is true.
func (b *Bool) AllFalse() bool { return b.bits.None() }

func (b *Bool) ArgMin() (int, bool) {
	if b.n == 0 {
		return 0, false
	}
	if b.AllTrue() {
		return 0, true
	}
	for i := 0; i < b.n; i++ {
		if !b.bits.Test(uint(i)) {
			return i, true
		}
	}
	return 0, true
}

func (b *Bool) ArgMax() (int, bool) {
	if b.n == 0 {
		return 0, false
	}
	if i, ok := b.bits.NextSet(0); ok && int(i) < b.n {
		return int(i), true
	}
	return 0, true
}

func (b *Bool) Min() (value.Value, bool) {
	i, ok := b.ArgMin()
	if !ok {
		return value.Value{}, false
	}
	return b.At(i), true
}

func (b *Bool) Max() (value.Value, bool) {
	i, ok := b.ArgMax()
	if !ok {
		return value.Value{}, false
	}
	return b.At(i), true
}

// Selection converts a block of Booleans into a
// bitset of its true rows. Bool blocks are returned
// without copying. Rows that are not Boolean are a
// caller error; Nothing in particular is rejected.
func Selection(b ValueBlock) (*bitset.BitSet, error) {
	if bb, ok := b.(*Bool); ok {
		return bb.bits, nil
	}
	n := b.Count()
	bs := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		v := b.At(i)
		if v.Tag() != value.TagBool {
			return nil, errors.AssertionFailedf("bitset row %d is %s, not %s", i, v.Tag(), value.TagBool)
		}
		if v.AsBool() {
			bs.Set(uint(i))
		}
	}
	return bs, nil
}
