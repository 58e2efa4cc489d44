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

import "github.com/SnellerInc/blockagg/value"

// Heterogeneous is a block whose rows
// may have any tag.
type Heterogeneous struct {
	vals []value.Value
}

// NewHeterogeneous returns a block viewing vals.
func NewHeterogeneous(vals ...value.Value) *Heterogeneous {
	return &Heterogeneous{vals: vals}
}

// Push appends v to the block.
func (h *Heterogeneous) Push(v value.Value) { h.vals = append(h.vals, v) }

func (h *Heterogeneous) Count() int { return len(h.vals) }
func (h *Heterogeneous) At(i int) value.Value { return h.vals[i] }
func (h *Heterogeneous) Extract() ([]value.Value, error) { return h.vals, nil }

// Mono is a block of n copies of one value.
type Mono struct {
	v value.Value
	n int
}

// NewMono returns a block of n copies of v.
func NewMono(v value.Value, n int) *Mono { return &Mono{v: v, n: n} }

func (m *Mono) Count() int { return m.n }
func (m *Mono) At(i int) value.Value { return m.v }

func (m *Mono) Min() (value.Value, bool) { return m.v.FillEmpty(), m.n > 0 }
func (m *Mono) Max() (value.Value, bool) { return m.v.FillEmpty(), m.n > 0 }

func (m *Mono) ArgMin() (int, bool) { return 0, m.n > 0 }
func (m *Mono) ArgMax() (int, bool) { return 0, m.n > 0 }

type bounded struct {
	ValueBlock
	lo, hi value.Value
}

// WithBounds decorates b with known tight bounds.
// The caller guarantees that lo and hi are the
// natural-order minimum and maximum of b.
// Extraction still goes through b.
func WithBounds(b ValueBlock, lo, hi value.Value) ValueBlock {
	return &bounded{ValueBlock: b, lo: lo, hi: hi}
}

func (b *bounded) Min() (value.Value, bool) { return b.lo, true }
func (b *bounded) Max() (value.Value, bool) { return b.hi, true }
func (b *bounded) Extract() ([]value.Value, error) { return Extract(b.ValueBlock) }
