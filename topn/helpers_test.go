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
	"math"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"github.com/SnellerInc/blockagg/block"
	"github.com/SnellerInc/blockagg/internal/blocktest"
	"github.com/SnellerInc/blockagg/sorting"
	"github.com/SnellerInc/blockagg/value"
)

const (
	T = true
	F = false
)

func testConfig(t *testing.T, dir Direction, maxSize int, pattern string) Config {
	t.Helper()
	spec, err := sorting.ParseJSON(pattern)
	require.NoError(t, err)
	return Config{
		MaxSize:   maxSize,
		MemLimit:  math.MaxInt32,
		Direction: dir,
		SortSpec:  spec,
	}
}

func newState(t *testing.T, dir Direction, maxSize int, pattern string) *State {
	t.Helper()
	s, err := New(testConfig(t, dir, maxSize, pattern))
	require.NoError(t, err)
	return s
}

func newPair(t *testing.T, maxSize int, pattern string) *Pair {
	t.Helper()
	p, err := NewPair(testConfig(t, Top, maxSize, pattern))
	require.NoError(t, err)
	return p
}

func toBitset(sel []bool) *bitset.BitSet {
	if sel == nil {
		return nil
	}
	bs := bitset.New(uint(len(sel)))
	for i, b := range sel {
		if b {
			bs.Set(uint(i))
		}
	}
	return bs
}

// batch builds a single-key batch of heterogeneous
// blocks whose value rows are precomputed records.
func batch(keys, outs []value.Value, start int, sel []bool) *Batch {
	return &Batch{
		Selection:   toBitset(sel),
		Keys:        []block.ValueBlock{block.NewHeterogeneous(keys...)},
		Values:      block.NewHeterogeneous(blocktest.Records(start, outs...)...),
		StartIdx:    int64(start),
		Precomputed: true,
	}
}

// records splits a finalized array into its
// output values and original indexes.
func records(t *testing.T, res value.Value) ([]value.Value, []int64) {
	t.Helper()
	require.Equal(t, value.TagArray, res.Tag())
	var outs []value.Value
	var idx []int64
	for _, r := range res.AsArray().Values() {
		require.Equal(t, value.TagArray, r.Tag())
		require.Equal(t, 2, r.AsArray().Len())
		outs = append(outs, r.AsArray().At(0))
		i := r.AsArray().At(1)
		require.Equal(t, value.TagInt64, i.Tag())
		idx = append(idx, i.AsInt64())
	}
	return outs, idx
}

func requireResult(t *testing.T, res value.Value, outs []value.Value, idx []int64) {
	t.Helper()
	gotOuts, gotIdx := records(t, res)
	require.Equal(t, idx, gotIdx)
	require.Len(t, gotOuts, len(outs))
	for i := range outs {
		require.True(t, value.Equal(outs[i], gotOuts[i]), "record %d: want %s got %s", i, outs[i], gotOuts[i])
	}
}

// oracle returns the keys a state of the given
// shape must hold, best first.
func oracle(spec *sorting.SortSpec, dir Direction, keys []value.Value, sel []bool, maxSize int) []value.Value {
	var kept []value.Value
	for i, k := range keys {
		if sel == nil || sel[i] {
			kept = append(kept, k.FillEmpty())
		}
	}
	slices.SortStableFunc(kept, func(a, b value.Value) bool {
		c := spec.Compare(a, b)
		if dir == Bottom {
			return c > 0
		}
		return c < 0
	})
	if len(kept) > maxSize {
		kept = kept[:maxSize]
	}
	return kept
}

// verify checks a finalized result against the
// oracle. keys holds the key of every row of the
// stream, indexed by original index. Ties may be
// broken either way, so only keys are compared.
func verify(t *testing.T, spec *sorting.SortSpec, res value.Value, keys, want []value.Value) {
	t.Helper()
	_, idx := records(t, res)
	require.Len(t, idx, len(want))
	seen := make(map[int64]bool)
	for i, n := range idx {
		require.False(t, seen[n], "index %d returned twice", n)
		seen[n] = true
		got := keys[n]
		require.Zero(t, spec.Compare(want[i], got), "position %d: want key %s got %s", i, want[i], got)
	}
}
