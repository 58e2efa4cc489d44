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
	"math"

	"golang.org/x/exp/constraints"

	"github.com/SnellerInc/blockagg/value"
)

type scalar interface {
	constraints.Integer | constraints.Float
}

// Homogeneous is a dense block of one primitive
// type. The positions of the minimum and maximum
// are maintained as rows are pushed, so Min, Max,
// ArgMin and ArgMax are O(1).
type Homogeneous[T scalar] struct {
	vals   []T
	box    func(T) value.Value
	less   func(x, y T) bool
	lo, hi int
}

func newHomogeneous[T scalar](box func(T) value.Value, less func(x, y T) bool, vals []T) *Homogeneous[T] {
	h := &Homogeneous[T]{box: box, less: less}
	for _, v := range vals {
		h.Push(v)
	}
	return h
}

func lessOrdered[T constraints.Integer](x, y T) bool { return x < y }

// lessFloat orders NaN below every other number
func lessFloat(x, y float64) bool {
	if math.IsNaN(y) {
		return false
	}
	return math.IsNaN(x) || x < y
}

// NewInt32Block returns a block of Int32 values.
func NewInt32Block(vals ...int32) *Homogeneous[int32] {
	return newHomogeneous(value.Int32, lessOrdered[int32], vals)
}

// NewInt64Block returns a block of Int64 values.
func NewInt64Block(vals ...int64) *Homogeneous[int64] {
	return newHomogeneous(value.Int64, lessOrdered[int64], vals)
}

// NewDateBlock returns a block of Date values
// given in milliseconds since the epoch.
func NewDateBlock(ms ...int64) *Homogeneous[int64] {
	return newHomogeneous(value.Date, lessOrdered[int64], ms)
}

// NewDoubleBlock returns a block of Double values.
func NewDoubleBlock(vals ...float64) *Homogeneous[float64] {
	return newHomogeneous(value.Double, lessFloat, vals)
}

// Push appends v to the block.
func (h *Homogeneous[T]) Push(v T) {
	h.vals = append(h.vals, v)
	n := len(h.vals) - 1
	if n == 0 {
		return
	}
	// strict comparisons keep the first of equal extremes
	if h.less(v, h.vals[h.lo]) {
		h.lo = n
	}
	if h.less(h.vals[h.hi], v) {
		h.hi = n
	}
}

// Values returns the raw column.
func (h *Homogeneous[T]) Values() []T { return h.vals }

func (h *Homogeneous[T]) Count() int { return len(h.vals) }

func (h *Homogeneous[T]) At(i int) value.Value { return h.box(h.vals[i]) }

func (h *Homogeneous[T]) Extract() ([]value.Value, error) {
	out := make([]value.Value, len(h.vals))
	for i := range h.vals {
		out[i] = h.box(h.vals[i])
	}
	return out, nil
}

func (h *Homogeneous[T]) ArgMin() (int, bool) { return h.lo, len(h.vals) > 0 }
func (h *Homogeneous[T]) ArgMax() (int, bool) { return h.hi, len(h.vals) > 0 }

func (h *Homogeneous[T]) Min() (value.Value, bool) {
	if len(h.vals) == 0 {
		return value.Value{}, false
	}
	return h.box(h.vals[h.lo]), true
}

func (h *Homogeneous[T]) Max() (value.Value, bool) {
	if len(h.vals) == 0 {
		return value.Value{}, false
	}
	return h.box(h.vals[h.hi]), true
}
