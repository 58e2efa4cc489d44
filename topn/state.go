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

// Package topn implements block-at-a-time
// Top-N and Bottom-N aggregation.
//
// A State keeps the N best rows seen so far
// under a sort pattern. Rows arrive as blocks
// of sort keys and output values; see Accumulate.
// Finalize turns a State into a best-first array
// of [outputValue, originalIndex] records.
package topn

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/SnellerInc/blockagg/errcode"
	"github.com/SnellerInc/blockagg/heap"
	"github.com/SnellerInc/blockagg/sorting"
	"github.com/SnellerInc/blockagg/value"
)

// Direction selects which end of the
// sort order a State keeps.
type Direction int

const (
	// Top keeps the first N rows in sort order.
	Top Direction = iota
	// Bottom keeps the last N rows in sort order.
	Bottom
)

func (d Direction) String() string {
	if d == Bottom {
		return "bottom"
	}
	return "top"
}

// SlotOverhead is charged for every heap entry
// on top of the size of its key and record.
const SlotOverhead = 16

// ErrExceededMemoryLimit is returned (wrapped)
// when a State grows past its memory limit.
// It carries errcode.ExceededMemoryLimit.
var ErrExceededMemoryLimit = errcode.New(errcode.ExceededMemoryLimit, "top-n state exceeded its memory limit")

// Config is the configuration of a State.
type Config struct {
	// MaxSize is the number of rows kept.
	MaxSize int
	// MemLimit caps the bytes a State may
	// account for.
	MemLimit int32
	// Direction is Top or Bottom.
	Direction Direction
	// SortSpec orders the sort keys.
	// It is borrowed and must outlive the State.
	SortSpec *sorting.SortSpec
	// Logger receives debug output.
	// It defaults to a no-op logger.
	Logger log.Logger
	// Metrics is optional.
	Metrics *Metrics
}

func (c *Config) validate() error {
	if c.MaxSize <= 0 {
		return errors.AssertionFailedf("top-n maxSize must be positive, got %d", c.MaxSize)
	}
	if c.MemLimit <= 0 {
		return errors.AssertionFailedf("top-n memLimit must be positive, got %d", c.MemLimit)
	}
	if c.Direction != Top && c.Direction != Bottom {
		return errors.AssertionFailedf("invalid top-n direction %d", int(c.Direction))
	}
	if c.SortSpec == nil {
		return errors.AssertionFailedf("top-n state needs a sort spec")
	}
	return nil
}

type entry struct {
	// key is the normalized sort key tuple
	key []value.Value
	// rec is [outputValue, Int64(originalIndex)]
	rec  value.Value
	size int64
}

// State is a partial Top-N or Bottom-N
// aggregate. A State is not safe for
// concurrent use; parallel evaluation
// uses one State per goroutine and Merge.
type State struct {
	maxSize   int
	memLimit  int64
	memUsed   int64
	direction Direction
	spec      *sorting.SortSpec
	logger    log.Logger
	metrics   *Metrics

	// order is a heap of indexes into entries
	// with the worst entry at the root; we use
	// integer indirection so that re-ordering
	// the heap doesn't move the entries
	order    *heap.Heap[int]
	entries  []entry
	released bool
}

// New returns an empty State.
func New(cfg Config) (*State, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &State{
		maxSize:   cfg.MaxSize,
		memLimit:  int64(cfg.MemLimit),
		direction: cfg.Direction,
		spec:      cfg.SortSpec,
		logger:    log.With(logger, "component", "topn", "direction", cfg.Direction),
		metrics:   cfg.Metrics,
	}
	s.order = heap.New(min(cfg.MaxSize, 64), s.worse)
	return s, nil
}

// Config returns the configuration s was built with.
// The logger is the decorated logger of s.
func (s *State) Config() Config {
	return Config{
		MaxSize:   s.maxSize,
		MemLimit:  int32(min(s.memLimit, math.MaxInt32)),
		Direction: s.direction,
		SortSpec:  s.spec,
		Logger:    s.logger,
		Metrics:   s.metrics,
	}
}

// Direction returns whether s keeps the top
// or the bottom of the sort order.
func (s *State) Direction() Direction { return s.direction }

// SortSpec returns the sort pattern of s.
func (s *State) SortSpec() *sorting.SortSpec { return s.spec }

// MaxSize returns the number of rows s keeps.
func (s *State) MaxSize() int { return s.maxSize }

// Len returns the number of rows in s.
func (s *State) Len() int { return s.order.Len() }

// Full returns true if s holds MaxSize rows.
func (s *State) Full() bool { return s.order.Len() >= s.maxSize }

// MemUsed returns the bytes accounted to s.
func (s *State) MemUsed() int64 { return s.memUsed }

// Released returns true if s has been released,
// either explicitly or by a failed step.
func (s *State) Released() bool { return s.released }

// Worst returns the sort key of the row that
// would be evicted first. ok is false if s is
// empty. The key must not be modified.
func (s *State) Worst() (key []value.Value, ok bool) {
	if s.order.Len() == 0 {
		return nil, false
	}
	return s.entries[s.order.Top()].key, true
}

// Release drops every row and resets the
// memory accounting. A released State
// cannot accumulate again.
func (s *State) Release() {
	s.order.Reset()
	s.entries = nil
	s.memUsed = 0
	s.released = true
}

// better returns true if normalized key a
// belongs strictly closer to the front of s than b.
func (s *State) better(a, b []value.Value) bool {
	c := s.spec.CompareNormalized(a, b)
	if s.direction == Bottom {
		return c > 0
	}
	return c < 0
}

// worse orders the heap: the root is an
// entry that no other entry is worse than.
func (s *State) worse(i, j int) bool {
	return s.better(s.entries[j].key, s.entries[i].key)
}

// improves returns true if a row with key could
// enter s. The key must already be normalized.
func (s *State) improves(key []value.Value) bool {
	if !s.Full() {
		return true
	}
	return s.better(key, s.entries[s.order.Top()].key)
}

func entrySize(key []value.Value, rec value.Value) int64 {
	n := int64(SlotOverhead + value.Size(rec))
	for i := range key {
		n += int64(value.Size(key[i]))
	}
	return n
}

// admit inserts a normalized key and its record
// if the key improves s. Both are deep-copied.
// If the memory limit is exceeded the error is
// returned and s must be released by the caller.
func (s *State) admit(key []value.Value, rec value.Value) error {
	if !s.improves(key) {
		return nil
	}
	owned := make([]value.Value, len(key))
	for i := range key {
		owned[i] = value.Copy(key[i])
	}
	e := entry{key: owned, rec: value.Copy(rec)}
	e.size = entrySize(e.key, e.rec)
	if s.Full() {
		root := s.order.Top()
		s.memUsed += e.size - s.entries[root].size
		s.entries[root] = e
		s.order.Fix(0)
		s.metrics.evicted()
	} else {
		s.memUsed += e.size
		s.entries = append(s.entries, e)
		s.order.Push(len(s.entries) - 1)
	}
	s.metrics.admitted()
	if s.memUsed > s.memLimit {
		s.metrics.exceeded()
		level.Debug(s.logger).Log("msg", "memory limit exceeded", "used", s.memUsed, "limit", s.memLimit, "rows", s.order.Len())
		return errors.Wrapf(ErrExceededMemoryLimit, "using %d bytes with a limit of %d", s.memUsed, s.memLimit)
	}
	return nil
}
