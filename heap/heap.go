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

// Package heap implements a generic binary heap
// ordered by a caller-supplied comparison function.
//
// The element for which less(x, y) holds against
// every other element sits at the root. Callers that
// want a "max-heap" simply invert the comparison.
package heap

// Heap is a binary heap of T.
// The zero value is not usable; use New.
type Heap[T any] struct {
	items []T
	less  func(x, y T) bool
}

// New returns an empty heap with capacity for
// hint items ordered by less.
func New[T any](hint int, less func(x, y T) bool) *Heap[T] {
	return &Heap[T]{items: make([]T, 0, hint), less: less}
}

// Len returns the number of items in h.
func (h *Heap[T]) Len() int { return len(h.items) }

// Top returns the root of h.
// Top panics if h is empty.
func (h *Heap[T]) Top() T { return h.items[0] }

// Items returns the backing slice in heap order.
// The slice must not be modified.
func (h *Heap[T]) Items() []T { return h.items }

// Push adds item to h.
func (h *Heap[T]) Push(item T) {
	PushSlice(&h.items, item, h.less)
}

// Pop removes and returns the root of h.
func (h *Heap[T]) Pop() T {
	return PopSlice(&h.items, h.less)
}

// ReplaceTop overwrites the root with item and
// restores the heap ordering, returning the
// previous root.
func (h *Heap[T]) ReplaceTop(item T) T {
	old := h.items[0]
	h.items[0] = item
	siftDown(h.items, 0, h.less)
	return old
}

// Fix restores the heap ordering after the
// item at index i has changed.
func (h *Heap[T]) Fix(i int) {
	FixSlice(h.items, i, h.less)
}

// Clone returns an independent copy of h
// sharing the comparison function.
func (h *Heap[T]) Clone() *Heap[T] {
	items := make([]T, len(h.items))
	copy(items, h.items)
	return &Heap[T]{items: items, less: h.less}
}

// Reset removes every item from h,
// keeping the allocated storage.
func (h *Heap[T]) Reset() {
	var zero T
	for i := range h.items {
		h.items[i] = zero
	}
	h.items = h.items[:0]
}

// Drain pops every item off h and returns them in
// root-first order. h is empty afterwards.
func (h *Heap[T]) Drain() []T {
	out := make([]T, 0, len(h.items))
	for len(h.items) > 0 {
		out = append(out, PopSlice(&h.items, h.less))
	}
	return out
}

// FixSlice restores the heap ordering of x
// after x[index] has been modified.
func FixSlice[T any](x []T, index int, less func(x, y T) bool) {
	if !siftDown(x, index, less) {
		siftUp(x, index, less)
	}
}

// PopSlice removes and returns the root of x.
func PopSlice[T any](x *[]T, less func(x, y T) bool) T {
	s := *x
	n := len(s) - 1
	ret := s[0]
	s[0] = s[n]
	var zero T
	s[n] = zero
	*x = s[:n]
	if n > 0 {
		siftDown(*x, 0, less)
	}
	return ret
}

// PushSlice appends item to x and restores
// the heap ordering.
func PushSlice[T any](x *[]T, item T, less func(x, y T) bool) {
	*x = append(*x, item)
	siftUp(*x, len(*x)-1, less)
}

// OrderSlice arranges x into heap order.
func OrderSlice[T any](x []T, less func(x, y T) bool) {
	for i := len(x)/2 - 1; i >= 0; i-- {
		siftDown(x, i, less)
	}
}

func siftUp[T any](x []T, index int, less func(x, y T) bool) {
	for index > 0 {
		parent := (index - 1) / 2
		if !less(x[index], x[parent]) {
			return
		}
		x[parent], x[index] = x[index], x[parent]
		index = parent
	}
}

// siftDown reports whether the item moved.
func siftDown[T any](x []T, index int, less func(x, y T) bool) bool {
	start := index
	for {
		c := index*2 + 1
		if c >= len(x) {
			break
		}
		if r := c + 1; r < len(x) && less(x[r], x[c]) {
			c = r
		}
		if !less(x[c], x[index]) {
			break
		}
		x[c], x[index] = x[index], x[c]
		index = c
	}
	return index != start
}
