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

// Package block implements columnar blocks of values.
//
// Every block supports Count and random access via At.
// Other abilities are optional capabilities, expressed
// as small interfaces that consumers probe for:
//
//	Extractor    decode the whole column at once
//	MinMaxer     tight natural-order bounds
//	ArgMinMaxer  O(1) position of the minimum/maximum
//
// A consumer must not assume anything about a block
// beyond the capabilities it actually implements.
package block

import (
	"github.com/cockroachdb/errors"

	"github.com/SnellerInc/blockagg/value"
)

// ValueBlock is a finite, possibly lazily
// decoded column of values.
type ValueBlock interface {
	// Count returns the number of rows.
	Count() int
	// At returns the value at row i as a view.
	At(i int) value.Value
}

// Extractor is implemented by blocks
// that decode all of their rows at once.
// Extract may fail for blocks that forbid it.
type Extractor interface {
	Extract() ([]value.Value, error)
}

// MinMaxer is implemented by blocks that can
// report tight bounds under the natural value
// ordering. ok is false when the bound is unknown.
type MinMaxer interface {
	Min() (v value.Value, ok bool)
	Max() (v value.Value, ok bool)
}

// ArgMinMaxer is implemented by homogeneous blocks
// that know the position of their extreme values.
// When several rows tie, the first is reported.
// ok is false for an empty block.
type ArgMinMaxer interface {
	ArgMin() (i int, ok bool)
	ArgMax() (i int, ok bool)
}

// Extract decodes every row of b. Blocks that
// implement Extractor decide for themselves;
// other blocks are decoded with At.
//
// The returned values are views of the block.
func Extract(b ValueBlock) ([]value.Value, error) {
	if e, ok := b.(Extractor); ok {
		return e.Extract()
	}
	out := make([]value.Value, b.Count())
	for i := range out {
		out[i] = b.At(i)
	}
	return out, nil
}

// ExtractFilled is Extract with Nothing
// replaced by Null. The result is a new slice.
func ExtractFilled(b ValueBlock) ([]value.Value, error) {
	vals, err := Extract(b)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(vals))
	for i := range vals {
		out[i] = vals[i].FillEmpty()
	}
	return out, nil
}

// Bounds returns the tight bounds of b
// if b knows them.
func Bounds(b ValueBlock) (lo, hi value.Value, ok bool) {
	mm, isMM := b.(MinMaxer)
	if !isMM {
		return value.Value{}, value.Value{}, false
	}
	lo, okLo := mm.Min()
	hi, okHi := mm.Max()
	if !okLo || !okHi {
		return value.Value{}, value.Value{}, false
	}
	return lo, hi, true
}

// ComputeBounds scans vals for their natural-order
// minimum and maximum. Nothing counts as Null.
// ok is false if vals is empty.
func ComputeBounds(vals []value.Value) (lo, hi value.Value, ok bool) {
	if len(vals) == 0 {
		return value.Value{}, value.Value{}, false
	}
	lo, hi = vals[0].FillEmpty(), vals[0].FillEmpty()
	for _, v := range vals[1:] {
		v = v.FillEmpty()
		if value.Compare(v, lo) < 0 {
			lo = v
		}
		if value.Compare(v, hi) > 0 {
			hi = v
		}
	}
	return lo, hi, true
}

// FromValue returns the block referenced by a
// TagValueBlock value.
func FromValue(v value.Value) (ValueBlock, error) {
	if v.Tag() != value.TagValueBlock {
		return nil, errors.AssertionFailedf("expected %s, got %s", value.TagValueBlock, v.Tag())
	}
	b, ok := v.AsHandle().(ValueBlock)
	if !ok || b == nil {
		return nil, errors.AssertionFailedf("%s handle does not reference a block", v.Tag())
	}
	return b, nil
}

// ToValue wraps b in a TagValueBlock value.
func ToValue(b ValueBlock) value.Value {
	return value.Handle(value.TagValueBlock, b)
}
