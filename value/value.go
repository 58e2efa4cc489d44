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

// Package value implements the tagged values
// that flow through blocks and aggregation states.
//
// A Value is a (Tag, payload) pair. Scalars live in
// an inline 64-bit word; everything else is referenced.
// Values obtained from a block are views: they may share
// bytes with the block. Copy produces an owned value
// that shares nothing mutable with its source.
package value

import (
	"math"

	"github.com/cockroachdb/apd/v3"
	"go.mongodb.org/mongo-driver/bson"
)

// Value is a dynamically typed datum.
// The zero Value is Nothing.
type Value struct {
	tag  Tag
	word uint64
	ref  any
}

// Nothing returns the Nothing value.
func Nothing() Value { return Value{} }

// Null returns the Null value.
func Null() Value { return Value{tag: TagNull} }

// Bool returns a Boolean value.
func Bool(b bool) Value {
	v := Value{tag: TagBool}
	if b {
		v.word = 1
	}
	return v
}

// Int32 returns a 32-bit integer value.
func Int32(i int32) Value { return Value{tag: TagInt32, word: uint64(int64(i))} }

// Int64 returns a 64-bit integer value.
func Int64(i int64) Value { return Value{tag: TagInt64, word: uint64(i)} }

// Double returns a floating-point value.
func Double(f float64) Value { return Value{tag: TagDouble, word: math.Float64bits(f)} }

// Date returns a date value from
// milliseconds since the Unix epoch.
func Date(ms int64) Value { return Value{tag: TagDate, word: uint64(ms)} }

// String returns a string value.
func String(s string) Value { return Value{tag: TagString, ref: s} }

// Decimal returns a decimal value referencing d.
// The caller must not modify d afterwards.
func Decimal(d *apd.Decimal) Value { return Value{tag: TagDecimal, ref: d} }

// Object returns a BSON document value
// viewing the bytes of doc.
func Object(doc bson.Raw) Value { return Value{tag: TagObject, ref: doc} }

// BSONArray returns a BSON array value
// viewing the bytes of arr.
func BSONArray(arr bson.Raw) Value { return Value{tag: TagBSONArray, ref: arr} }

// NewArray returns an Array value holding vals.
func NewArray(vals ...Value) Value {
	return Value{tag: TagArray, ref: &Array{vals: vals}}
}

// FromArray wraps an existing *Array.
func FromArray(a *Array) Value { return Value{tag: TagArray, ref: a} }

// Handle returns a value of a handle tag
// (TagValueBlock, TagSortSpec, TagAggState)
// referencing h.
func Handle(tag Tag, h any) Value {
	if !tag.IsHandle() {
		panic("value.Handle: " + tag.String() + " is not a handle tag")
	}
	return Value{tag: tag, ref: h}
}

// Tag returns the tag of v.
func (v Value) Tag() Tag { return v.tag }

// IsNothing returns true if v is Nothing.
func (v Value) IsNothing() bool { return v.tag == TagNothing }

// IsNull returns true if v is Null.
func (v Value) IsNull() bool { return v.tag == TagNull }

// AsBool returns the payload of a Boolean.
func (v Value) AsBool() bool { return v.word != 0 }

// AsInt32 returns the payload of an Int32.
func (v Value) AsInt32() int32 { return int32(int64(v.word)) }

// AsInt64 returns the payload of an Int64 or Int32.
func (v Value) AsInt64() int64 {
	if v.tag == TagInt32 {
		return int64(v.AsInt32())
	}
	return int64(v.word)
}

// AsDouble returns the payload of a Double.
func (v Value) AsDouble() float64 { return math.Float64frombits(v.word) }

// AsDate returns the payload of a Date.
func (v Value) AsDate() int64 { return int64(v.word) }

// AsString returns the payload of a String.
func (v Value) AsString() string { return v.ref.(string) }

// AsDecimal returns the payload of a Decimal.
// The result must not be modified.
func (v Value) AsDecimal() *apd.Decimal { return v.ref.(*apd.Decimal) }

// AsRaw returns the bytes of an Object or BSONArray.
func (v Value) AsRaw() bson.Raw { return v.ref.(bson.Raw) }

// AsArray returns the payload of an Array.
func (v Value) AsArray() *Array { return v.ref.(*Array) }

// AsHandle returns the payload of a handle value.
func (v Value) AsHandle() any { return v.ref }

// FillEmpty returns Null if v is Nothing and v otherwise.
func (v Value) FillEmpty() Value {
	if v.tag == TagNothing {
		return Null()
	}
	return v
}

// Copy returns an owned deep copy of v.
// Handles are copied by reference.
func Copy(v Value) Value {
	switch v.tag {
	case TagDecimal:
		d := new(apd.Decimal)
		d.Set(v.AsDecimal())
		return Decimal(d)
	case TagObject, TagBSONArray:
		raw := v.AsRaw()
		buf := make(bson.Raw, len(raw))
		copy(buf, raw)
		return Value{tag: v.tag, ref: buf}
	case TagArray:
		src := v.AsArray().vals
		dst := make([]Value, len(src))
		for i := range src {
			dst[i] = Copy(src[i])
		}
		return NewArray(dst...)
	default:
		return v
	}
}

// Equal returns true if a and b compare
// equal under the natural ordering.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}
