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

// Package blocktest provides block shims and
// fixtures for testing block consumers.
package blocktest

import (
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"

	"github.com/SnellerInc/blockagg/block"
	"github.com/SnellerInc/blockagg/errcode"
	"github.com/SnellerInc/blockagg/value"
)

// TestBlock is a heterogeneous block whose
// bounds are set explicitly by the test.
// It counts how often it has been extracted.
type TestBlock struct {
	vals      []value.Value
	lo, hi    value.Value
	hasLo     bool
	hasHi     bool
	Extracted int
}

// NewTestBlock returns a TestBlock holding vals
// with no bounds set.
func NewTestBlock(vals ...value.Value) *TestBlock {
	return &TestBlock{vals: vals}
}

// Push appends v.
func (b *TestBlock) Push(v value.Value) { b.vals = append(b.vals, v) }

// SetMin sets the bound reported by Min.
func (b *TestBlock) SetMin(v value.Value) { b.lo, b.hasLo = v, true }

// SetMax sets the bound reported by Max.
func (b *TestBlock) SetMax(v value.Value) { b.hi, b.hasHi = v, true }

func (b *TestBlock) Count() int { return len(b.vals) }
func (b *TestBlock) At(i int) value.Value { return b.vals[i] }

func (b *TestBlock) Extract() ([]value.Value, error) {
	b.Extracted++
	return b.vals, nil
}

func (b *TestBlock) Min() (value.Value, bool) { return b.lo, b.hasLo }
func (b *TestBlock) Max() (value.Value, bool) { return b.hi, b.hasHi }

// UnextractableTestBlock is a TestBlock whose
// Extract always fails with errcode.Unextractable.
// Random access with At keeps working.
type UnextractableTestBlock struct {
	TestBlock
}

// NewUnextractable returns an UnextractableTestBlock holding vals.
func NewUnextractable(vals ...value.Value) *UnextractableTestBlock {
	return &UnextractableTestBlock{TestBlock{vals: vals}}
}

func (b *UnextractableTestBlock) Extract() ([]value.Value, error) {
	b.Extracted++
	return nil, errcode.New(errcode.Unextractable, "extract() called on an unextractable block")
}

var (
	_ block.Extractor = (*TestBlock)(nil)
	_ block.MinMaxer  = (*TestBlock)(nil)
	_ block.Extractor = (*UnextractableTestBlock)(nil)
)

// Bits returns a heterogeneous block of
// Boolean rows, the shape a selection takes
// when it is not bitset-backed.
func Bits(bits ...bool) *block.Heterogeneous {
	h := block.NewHeterogeneous()
	for _, b := range bits {
		h.Push(value.Bool(b))
	}
	return h
}

// AllTrue returns n true bits.
func AllTrue(n int) []bool {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = true
	}
	return bits
}

// Records returns the rows [vals[i], Int64(start+i)]
// that a caller precomputes for a value block.
func Records(start int, vals ...value.Value) []value.Value {
	out := make([]value.Value, len(vals))
	for i, v := range vals {
		out[i] = value.NewArray(v, value.Int64(int64(start+i)))
	}
	return out
}

// Decimals parses each string as a Decimal value.
// The string "null" yields Null.
func Decimals(strs ...string) []value.Value {
	out := make([]value.Value, len(strs))
	for i, s := range strs {
		if s == "null" {
			out[i] = value.Null()
			continue
		}
		out[i] = value.MustDecimal(s)
	}
	return out
}

func doc(d bson.D) bson.Raw {
	raw, err := bson.Marshal(d)
	if err != nil {
		panic(err)
	}
	return raw
}

func arr(vals ...any) bson.Raw {
	d := make(bson.D, len(vals))
	for i, v := range vals {
		d[i] = bson.E{Key: strconv.Itoa(i), Value: v}
	}
	return doc(d)
}

// InterestingValues returns one value of every
// orderable kind, including the boundary values
// of each numeric type, NaN, empty and nested
// documents and arrays.
func InterestingValues() []value.Value {
	return []value.Value{
		value.Nothing(),
		value.Null(),
		value.Bool(false),
		value.Bool(true),
		value.Int32(0),
		value.Int32(-1),
		value.Int32(math.MinInt32),
		value.Int32(math.MaxInt32),
		value.Int64(0),
		value.Int64(1 << 40),
		value.Int64(math.MinInt64),
		value.Int64(math.MaxInt64),
		value.Double(0),
		value.Double(0.5),
		value.Double(-1.5),
		value.Double(math.NaN()),
		value.Double(math.Inf(1)),
		value.Double(math.Inf(-1)),
		value.Double(math.MaxFloat64),
		value.MustDecimal("0"),
		value.MustDecimal("-0.25"),
		value.MustDecimal("1.000000000000000000000000000000001"),
		value.MustDecimal("NaN"),
		value.MustDecimal("Infinity"),
		value.Date(0),
		value.Date(-1000),
		value.Date(1700000000000),
		value.String(""),
		value.String("a"),
		value.String("abc"),
		value.String("b"),
		value.Object(doc(bson.D{})),
		value.Object(doc(bson.D{{Key: "a", Value: int32(1)}})),
		value.Object(doc(bson.D{{Key: "a", Value: "x"}, {Key: "b", Value: 2.5}})),
		value.BSONArray(arr()),
		value.BSONArray(arr(int32(1), "two", 3.0)),
		value.BSONArray(arr(bson.D{{Key: "c", Value: int32(7)}})),
		value.NewArray(),
		value.NewArray(value.Int32(3), value.Null()),
	}
}

// HomogeneousInt32 returns the Int32 column
// {-1, 0, 1, min, max}.
func HomogeneousInt32() *block.Homogeneous[int32] {
	return block.NewInt32Block(-1, 0, 1, math.MinInt32, math.MaxInt32)
}

// HomogeneousInt64 returns the Int64 column
// {-1, 0, 1, min, max}.
func HomogeneousInt64() *block.Homogeneous[int64] {
	return block.NewInt64Block(-1, 0, 1, math.MinInt64, math.MaxInt64)
}

// HomogeneousDate returns the Date column
// {-1, 0, 1, min, max}.
func HomogeneousDate() *block.Homogeneous[int64] {
	return block.NewDateBlock(-1, 0, 1, math.MinInt64, math.MaxInt64)
}

// HomogeneousDouble returns the Double column
// {-1, 0, 1, lowest, max, NaN, -Inf, +Inf}.
// It holds a single NaN since all NaNs are equal.
func HomogeneousDouble() *block.Homogeneous[float64] {
	return block.NewDoubleBlock(-1, 0, 1, -math.MaxFloat64, math.MaxFloat64, math.NaN(), math.Inf(-1), math.Inf(1))
}

// HomogeneousBool returns the Bool column {false, true}.
func HomogeneousBool() *block.Bool {
	return block.NewBoolBlock(false, true)
}

// Nested returns the document {key: v}.
func Nested(key string, v value.Value) value.Value {
	idx, dst := bsoncore.AppendDocumentStart(nil)
	dst, err := value.AppendElement(dst, key, v)
	if err != nil {
		panic(err)
	}
	dst, err = bsoncore.AppendDocumentEnd(dst, idx)
	if err != nil {
		panic(err)
	}
	return value.Object(dst)
}

// Singleton returns the BSON array [v].
func Singleton(v value.Value) value.Value {
	dst, err := value.AppendArray(nil, []value.Value{v})
	if err != nil {
		panic(err)
	}
	return value.BSONArray(dst)
}
