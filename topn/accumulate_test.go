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
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnellerInc/blockagg/block"
	"github.com/SnellerInc/blockagg/errcode"
	"github.com/SnellerInc/blockagg/internal/blocktest"
	"github.com/SnellerInc/blockagg/value"
)

var (
	lowKeys  = blocktest.Decimals("1", "2", "3", "4")
	highKeys = blocktest.Decimals("5", "6", "7", "8")
)

type keyBlock interface {
	block.ValueBlock
	SetMin(value.Value)
	SetMax(value.Value)
}

func withBounds(b keyBlock, keys []value.Value) keyBlock {
	lo, hi, _ := block.ComputeBounds(keys)
	b.SetMin(lo)
	b.SetMax(hi)
	return b
}

// fill returns a full state of size 4 holding keys.
func fill(t *testing.T, dir Direction, pattern string, keys []value.Value) *State {
	s := newState(t, dir, 4, pattern)
	require.NoError(t, s.Accumulate(batch(keys, keys, 0, nil)))
	require.True(t, s.Full())
	return s
}

func lazyBatch(keys block.ValueBlock, outs []value.Value) *Batch {
	return &Batch{
		Keys:        []block.ValueBlock{keys},
		Values:      blocktest.NewUnextractable(blocktest.Records(4, outs...)...),
		StartIdx:    4,
		Precomputed: true,
	}
}

func TestPrunedBlocksAreNotExtracted(t *testing.T) {
	cases := []struct {
		dir          Direction
		pattern      string
		first, later []value.Value
	}{
		{Top, `{"a": 1}`, lowKeys, highKeys},
		{Top, `{"a": -1}`, highKeys, lowKeys},
		{Bottom, `{"a": 1}`, highKeys, lowKeys},
		{Bottom, `{"a": -1}`, lowKeys, highKeys},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s%s", c.dir, c.pattern), func(t *testing.T) {
			s := fill(t, c.dir, c.pattern, c.first)
			keys := withBounds(blocktest.NewUnextractable(c.later...), c.later)
			require.NoError(t, s.Accumulate(lazyBatch(keys, c.later)))
			assert.Zero(t, keys.(*blocktest.UnextractableTestBlock).Extracted)

			all := append(append([]value.Value{}, c.first...), c.later...)
			verify(t, s.SortSpec(), s.Finalize(), all, oracle(s.SortSpec(), c.dir, all, nil, 4))
		})
	}
}

func TestValuesExtractedLazily(t *testing.T) {
	// no bounds: the keys are extracted but no row
	// survives, so the values never are
	s := fill(t, Top, `{"a": 1}`, lowKeys)
	keys := blocktest.NewTestBlock(highKeys...)
	require.NoError(t, s.Accumulate(lazyBatch(keys, highKeys)))
	assert.Equal(t, 1, keys.Extracted)

	s = fill(t, Top, `{"a": -1}`, highKeys)
	keys = blocktest.NewTestBlock(lowKeys...)
	require.NoError(t, s.Accumulate(lazyBatch(keys, lowKeys)))
	assert.Equal(t, 1, keys.Extracted)
}

func TestQualifyingRowsAreExtracted(t *testing.T) {
	// rows of the later block belong in the state,
	// so extraction must be attempted
	s := fill(t, Top, `{"a": 1}`, highKeys)
	err := s.Accumulate(lazyBatch(blocktest.NewTestBlock(lowKeys...), lowKeys))
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.Unextractable))
	assert.True(t, s.Released())

	s = fill(t, Top, `{"a": 1}`, highKeys)
	keys := withBounds(blocktest.NewUnextractable(lowKeys...), lowKeys)
	err = s.Accumulate(lazyBatch(keys, lowKeys))
	require.Error(t, err)
	assert.True(t, errcode.Is(err, errcode.Unextractable))
}

func TestEmptySelection(t *testing.T) {
	s := newState(t, Top, 4, `{"a": 1}`)
	keys := blocktest.NewUnextractable(lowKeys...)
	b := lazyBatch(keys, lowKeys)
	b.Selection = toBitset([]bool{F, F, F, F})
	require.NoError(t, s.Accumulate(b))
	assert.Zero(t, keys.Extracted)
	assert.Zero(t, s.Len())

	// a non-full state is never pruned
	keys = blocktest.NewUnextractable(lowKeys...)
	withBounds(keys, lowKeys)
	require.Error(t, s.Accumulate(lazyBatch(keys, lowKeys)))
}

func TestArrayBoundsDoNotPrune(t *testing.T) {
	s := fill(t, Top, `{"a": 1}`, lowKeys)
	// {9, [0, 100]} has natural bounds 9 and [0, 100]
	// but its ascending sort keys are 9 and 0
	arr := value.NewArray(value.Int32(0), value.Int32(100))
	later := []value.Value{value.Int32(9), arr}
	keys := withBounds(blocktest.NewTestBlock(later...), later)
	require.NoError(t, s.Accumulate(&Batch{
		Keys:        []block.ValueBlock{keys},
		Values:      block.NewHeterogeneous(blocktest.Records(4, later...)...),
		StartIdx:    4,
		Precomputed: true,
	}))
	_, idx := records(t, s.Finalize())
	assert.Equal(t, []int64{5, 0, 1, 2}, idx)
}

func TestArrayKeys(t *testing.T) {
	keys := []value.Value{
		value.NewArray(value.Int32(5), value.Int32(1)),
		value.Int32(3),
		blocktest.Singleton(value.Int32(4)),
		value.NewArray(),
	}
	asc := newState(t, Top, 4, `{"a": 1}`)
	require.NoError(t, asc.Accumulate(batch(keys, keys, 0, nil)))
	_, idx := records(t, asc.Finalize())
	// sort keys ascending: Null, 1, 3, 4
	assert.Equal(t, []int64{3, 0, 1, 2}, idx)

	desc := newState(t, Top, 4, `{"a": -1}`)
	require.NoError(t, desc.Accumulate(batch(keys, keys, 0, nil)))
	_, idx = records(t, desc.Finalize())
	// sort keys descending: 5, 4, 3, Null
	assert.Equal(t, []int64{0, 2, 1, 3}, idx)
}

func TestNothingIsNull(t *testing.T) {
	for _, dir := range []Direction{Top, Bottom} {
		withNothing := newState(t, dir, 2, `{"a": 1}`)
		withNull := newState(t, dir, 2, `{"a": 1}`)
		outs := blocktest.Decimals("0", "1", "2")
		require.NoError(t, withNothing.Accumulate(batch(
			[]value.Value{value.Int32(1), value.Nothing(), value.Int32(2)}, outs, 0, nil)))
		require.NoError(t, withNull.Accumulate(batch(
			[]value.Value{value.Int32(1), value.Null(), value.Int32(2)}, outs, 0, nil)))
		assert.True(t, value.Equal(withNull.Finalize(), withNothing.Finalize()))
		for _, k := range withNothing.Keys() {
			assert.NotEqual(t, value.TagNothing, k[0].Tag())
		}
	}
}

func TestArgMinMax(t *testing.T) {
	type extreme struct {
		dir     Direction
		pattern string
		want    value.Value
	}
	cases := []struct {
		name string
		keys block.ValueBlock
		want []extreme
	}{
		{"int32", blocktest.HomogeneousInt32(), []extreme{
			{Top, `{"a": 1}`, value.Int32(math.MinInt32)},
			{Top, `{"a": -1}`, value.Int32(math.MaxInt32)},
			{Bottom, `{"a": 1}`, value.Int32(math.MaxInt32)},
			{Bottom, `{"a": -1}`, value.Int32(math.MinInt32)},
		}},
		{"int64", blocktest.HomogeneousInt64(), []extreme{
			{Top, `{"a": 1}`, value.Int64(math.MinInt64)},
			{Bottom, `{"a": 1}`, value.Int64(math.MaxInt64)},
		}},
		{"date", blocktest.HomogeneousDate(), []extreme{
			{Top, `{"a": -1}`, value.Date(math.MaxInt64)},
			{Bottom, `{"a": -1}`, value.Date(math.MinInt64)},
		}},
		{"double", blocktest.HomogeneousDouble(), []extreme{
			{Top, `{"a": 1}`, value.Double(math.NaN())},
			{Top, `{"a": -1}`, value.Double(math.Inf(1))},
			{Bottom, `{"a": 1}`, value.Double(math.Inf(1))},
			{Bottom, `{"a": -1}`, value.Double(math.NaN())},
		}},
		{"bool", blocktest.HomogeneousBool(), []extreme{
			{Top, `{"a": 1}`, value.Bool(false)},
			{Top, `{"a": -1}`, value.Bool(true)},
		}},
	}
	for _, c := range cases {
		n := c.keys.Count()
		outs := make([]value.Value, n)
		for i := range outs {
			outs[i] = value.DecimalFromInt64(int64(i))
		}
		for _, e := range c.want {
			t.Run(fmt.Sprintf("%s/%s%s", c.name, e.dir, e.pattern), func(t *testing.T) {
				s := newState(t, e.dir, 1, e.pattern)
				// a dense Bool selection counts as every row
				sel, err := block.Selection(block.NewBoolBlock(blocktest.AllTrue(n)...))
				require.NoError(t, err)
				require.NoError(t, s.Accumulate(&Batch{
					Selection:   sel,
					Keys:        []block.ValueBlock{c.keys},
					Values:      blocktest.NewUnextractable(blocktest.Records(0, outs...)...),
					Precomputed: true,
				}))
				_, idx := records(t, s.Finalize())
				require.Len(t, idx, 1)
				assert.True(t, value.Equal(e.want, c.keys.At(int(idx[0]))), "got %s", c.keys.At(int(idx[0])))
			})
		}
	}
}

func TestArgMinMaxRespectsState(t *testing.T) {
	s := newState(t, Top, 1, `{"a": 1}`)
	require.NoError(t, s.Accumulate(batch(
		[]value.Value{value.Int32(math.MinInt32)}, []value.Value{value.String("first")}, 0, nil)))
	require.NoError(t, s.Accumulate(&Batch{
		Keys:        []block.ValueBlock{blocktest.HomogeneousInt32()},
		Values:      blocktest.NewUnextractable(blocktest.Records(1, blocktest.Decimals("0", "1", "2", "3", "4")...)...),
		StartIdx:    1,
		Precomputed: true,
	}))
	outs, idx := records(t, s.Finalize())
	assert.Equal(t, []int64{0}, idx, "an equal key does not replace the kept row")
	assert.True(t, value.Equal(value.String("first"), outs[0]))
}

func TestMixedSelectionHomogeneous(t *testing.T) {
	keys := blocktest.HomogeneousInt32()
	n := keys.Count()
	sel := blocktest.AllTrue(n)
	// drop the minimum and maximum rows
	sel[3], sel[4] = false, false
	vals, err := block.Extract(keys)
	require.NoError(t, err)
	for _, dir := range []Direction{Top, Bottom} {
		for _, pattern := range []string{`{"a": 1}`, `{"a": -1}`} {
			s := newState(t, dir, 1, pattern)
			require.NoError(t, s.Accumulate(&Batch{
				Selection: toBitset(sel),
				Keys:      []block.ValueBlock{keys},
				Values:    block.NewHeterogeneous(vals...),
			}))
			verify(t, s.SortSpec(), s.Finalize(), vals, oracle(s.SortSpec(), dir, vals, sel, 1))
		}
	}
}

func TestHomogeneousOracle(t *testing.T) {
	blocks := map[string]block.ValueBlock{
		"int32":  blocktest.HomogeneousInt32(),
		"int64":  blocktest.HomogeneousInt64(),
		"date":   blocktest.HomogeneousDate(),
		"double": blocktest.HomogeneousDouble(),
		"bool":   blocktest.HomogeneousBool(),
	}
	for name, keys := range blocks {
		n := keys.Count()
		vals, err := block.Extract(keys)
		require.NoError(t, err)
		outs := make([]value.Value, n)
		for i := range outs {
			outs[i] = value.DecimalFromInt64(int64(i))
		}
		for mask := 0; mask < 1<<n; mask++ {
			sel := make([]bool, n)
			for i := range sel {
				sel[i] = mask&(1<<i) != 0
			}
			for _, dir := range []Direction{Top, Bottom} {
				for _, pattern := range []string{`{"a": 1}`, `{"a": -1}`} {
					s := newState(t, dir, 1, pattern)
					require.NoError(t, s.Accumulate(&Batch{
						Selection:   toBitset(sel),
						Keys:        []block.ValueBlock{keys},
						Values:      block.NewHeterogeneous(blocktest.Records(0, outs...)...),
						Precomputed: true,
					}), "%s mask %b", name, mask)
					verify(t, s.SortSpec(), s.Finalize(), vals, oracle(s.SortSpec(), dir, vals, sel, 1))
				}
			}
		}
	}
}

func TestInterestingValuesOracle(t *testing.T) {
	input := blocktest.InterestingValues()
	shapes := map[string]func(value.Value) value.Value{
		"top level": func(v value.Value) value.Value { return v },
		"nested":    func(v value.Value) value.Value { return blocktest.Nested("b", v) },
		"array":     blocktest.Singleton,
	}
	for name, shape := range shapes {
		keys := make([]value.Value, len(input))
		for i := range input {
			keys[i] = shape(input[i])
		}
		for maxSize := 1; maxSize <= len(keys)+1; maxSize++ {
			for _, pattern := range []string{`{"a": 1}`, `{"a": -1}`} {
				p := newPair(t, maxSize, pattern)
				require.NoError(t, p.Accumulate(batch(keys, input, 0, nil)))
				top, bottom := p.Finalize()
				spec := p.Top.SortSpec()
				t.Logf("%s maxSize=%d %s", name, maxSize, pattern)
				verify(t, spec, top, keys, oracle(spec, Top, keys, nil, maxSize))
				verify(t, spec, bottom, keys, oracle(spec, Bottom, keys, nil, maxSize))
			}
		}
	}
}
