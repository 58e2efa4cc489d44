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

package topn

import (
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/blockagg/value"
)

// Finalize returns the rows of s as an array
// of [outputValue, Int64(originalIndex)] records
// in best-first order: for Top that is sort order,
// for Bottom it is reverse sort order.
//
// Finalize does not modify s, and the result
// shares no memory with it.
func (s *State) Finalize() value.Value {
	recs := s.drain()
	out := make([]value.Value, len(recs))
	for i := range recs {
		out[i] = value.Copy(recs[i].rec)
	}
	return value.NewArray(out...)
}

// Keys returns the sort keys of s in the
// same order as the records of Finalize.
// The values are views of s.
func (s *State) Keys() [][]value.Value {
	recs := s.drain()
	out := make([][]value.Value, len(recs))
	for i := range recs {
		out[i] = slices.Clone(recs[i].key)
	}
	return out
}

// drain pops a copy of the heap, which yields
// the entries worst-first, and reverses them.
func (s *State) drain() []*entry {
	order := s.order.Clone().Drain()
	out := make([]*entry, len(order))
	for i, idx := range order {
		out[len(order)-1-i] = &s.entries[idx]
	}
	return out
}
