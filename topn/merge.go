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
	"github.com/cockroachdb/errors"

	"github.com/SnellerInc/blockagg/heap"
	"github.com/SnellerInc/blockagg/value"
)

// Merge adds every row of o to s under the
// usual admission and memory rules. Both states
// must have the same size, direction and sort
// pattern. o is not modified.
//
// If Merge returns an error, s has been released.
func (s *State) Merge(o *State) error {
	if s.released || o.released {
		return errors.AssertionFailedf("merging a released top-n state")
	}
	if s.maxSize != o.maxSize || s.direction != o.direction || !s.spec.Equal(o.spec) {
		return errors.AssertionFailedf("cannot merge %s-%d %s into %s-%d %s",
			o.direction, o.maxSize, o.spec, s.direction, s.maxSize, s.spec)
	}
	for i := range o.entries {
		if err := s.admit(o.entries[i].key, o.entries[i].rec); err != nil {
			s.Release()
			return err
		}
	}
	return nil
}

// Clone returns an independent copy of s.
func (s *State) Clone() *State {
	c := *s
	c.entries = make([]entry, len(s.entries))
	for i := range s.entries {
		c.entries[i] = s.entries[i].clone()
	}
	c.order = heap.New(max(s.order.Len(), 1), c.worse)
	// pushing in heap order keeps every item in place
	for _, idx := range s.order.Items() {
		c.order.Push(idx)
	}
	return &c
}

func (e *entry) clone() entry {
	key := make([]value.Value, len(e.key))
	for i := range e.key {
		key[i] = value.Copy(e.key[i])
	}
	return entry{key: key, rec: value.Copy(e.rec), size: e.size}
}
