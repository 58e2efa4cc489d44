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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnellerInc/blockagg/value"
)

func TestHomogeneousArgMinMax(t *testing.T) {
	i32 := NewInt32Block(-1, 0, 1, math.MinInt32, math.MaxInt32, math.MinInt32)
	lo, ok := i32.ArgMin()
	require.True(t, ok)
	assert.Equal(t, 3, lo, "the first of equal minimums")
	hi, _ := i32.ArgMax()
	assert.Equal(t, 4, hi)
	v, ok := i32.Min()
	require.True(t, ok)
	assert.True(t, value.Equal(value.Int32(math.MinInt32), v))

	dbl := NewDoubleBlock(-1, 0, 1, -math.MaxFloat64, math.MaxFloat64, math.NaN(), math.Inf(-1), math.Inf(1))
	lo, _ = dbl.ArgMin()
	assert.Equal(t, 5, lo, "NaN sorts below every number")
	hi, _ = dbl.ArgMax()
	assert.Equal(t, 7, hi)

	dates := NewDateBlock(5, 3, 9)
	v, _ = dates.Max()
	assert.Equal(t, value.TagDate, v.Tag())
	assert.Equal(t, int64(9), v.AsDate())

	empty := NewInt64Block()
	_, ok = empty.ArgMin()
	assert.False(t, ok)
	_, ok = empty.Max()
	assert.False(t, ok)
}

func TestHomogeneousBoundsMatchScan(t *testing.T) {
	blk := NewDoubleBlock(3, math.NaN(), -2, 8, 8, math.Inf(-1))
	vals, err := Extract(blk)
	require.NoError(t, err)
	lo, hi, ok := ComputeBounds(vals)
	require.True(t, ok)
	mlo, mhi, ok := Bounds(blk)
	require.True(t, ok)
	assert.True(t, value.Equal(lo, mlo))
	assert.True(t, value.Equal(hi, mhi))
}

func TestBoolBlock(t *testing.T) {
	b := NewBoolBlock(true, false, true)
	assert.Equal(t, 3, b.Count())
	assert.False(t, b.AllTrue())
	assert.False(t, b.AllFalse())
	lo, _ := b.ArgMin()
	hi, _ := b.ArgMax()
	assert.Equal(t, 1, lo)
	assert.Equal(t, 0, hi)

	all := NewBoolBlock(true, true)
	assert.True(t, all.AllTrue())
	none := NewBoolBlock(false, false)
	assert.True(t, none.AllFalse())
	hi, ok := none.ArgMax()
	require.True(t, ok)
	assert.Equal(t, 0, hi)
}

func TestSelection(t *testing.T) {
	het := NewHeterogeneous(value.Bool(false), value.Bool(true), value.Bool(true))
	bs, err := Selection(het)
	require.NoError(t, err)
	assert.Equal(t, uint(2), bs.Count())
	assert.True(t, bs.Test(1))

	_, err = Selection(NewHeterogeneous(value.Bool(true), value.Nothing()))
	require.Error(t, err)

	bb := NewBoolBlock(true)
	bs, err = Selection(bb)
	require.NoError(t, err)
	assert.Same(t, bb.Bits(), bs)
}

func TestWithBoundsKeepsExtraction(t *testing.T) {
	inner := NewHeterogeneous(value.Int32(2), value.Nothing())
	b := WithBounds(inner, value.Null(), value.Int32(2))
	lo, hi, ok := Bounds(b)
	require.True(t, ok)
	assert.True(t, lo.IsNull())
	assert.True(t, value.Equal(hi, value.Int32(2)))

	vals, err := ExtractFilled(b)
	require.NoError(t, err)
	assert.True(t, vals[1].IsNull())
	assert.True(t, inner.At(1).IsNothing(), "ExtractFilled must not modify the block")
}

func TestMono(t *testing.T) {
	m := NewMono(value.Nothing(), 4)
	lo, hi, ok := Bounds(m)
	require.True(t, ok)
	assert.True(t, lo.IsNull())
	assert.True(t, hi.IsNull())
	assert.Equal(t, 4, m.Count())
}

func TestValueHandle(t *testing.T) {
	b := NewInt64Block(1)
	got, err := FromValue(ToValue(b))
	require.NoError(t, err)
	assert.Equal(t, ValueBlock(b), got)
	_, err = FromValue(value.Int32(1))
	require.Error(t, err)
}
