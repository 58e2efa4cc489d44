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

// Package sorting implements sort patterns and the
// comparison of sort keys under them.
package sorting

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/SnellerInc/blockagg/value"
)

// ErrUnorderable is returned for sort keys
// that the value ordering cannot place.
var ErrUnorderable = errors.New("sort key cannot be ordered")

// SortSpec compares sort keys under a
// multi-field pattern such as {a: -1, b: 1}.
//
// A SortSpec is immutable once built and may be
// shared by any number of aggregation states.
type SortSpec struct {
	fields []Field
}

// New returns a SortSpec over fields.
func New(fields ...Field) (*SortSpec, error) {
	if len(fields) == 0 {
		return nil, errors.New("sort pattern has no fields")
	}
	for i := range fields {
		if fields[i].Direction != Ascending && fields[i].Direction != Descending {
			return nil, errors.Newf("field %q: invalid direction %d", fields[i].Path, int(fields[i].Direction))
		}
	}
	return &SortSpec{fields: append([]Field(nil), fields...)}, nil
}

// Parse builds a SortSpec from a pattern document
// whose values are 1 (ascending) or -1 (descending).
func Parse(pattern bson.Raw) (*SortSpec, error) {
	elems, err := pattern.Elements()
	if err != nil {
		return nil, errors.Wrap(err, "reading sort pattern")
	}
	fields := make([]Field, 0, len(elems))
	for _, e := range elems {
		rv := e.Value()
		var dir int64
		switch rv.Type {
		case bsontype.Int32:
			dir = int64(rv.Int32())
		case bsontype.Int64:
			dir = rv.Int64()
		case bsontype.Double:
			dir = int64(rv.Double())
		default:
			return nil, errors.Newf("field %q: direction must be 1 or -1, got %s", e.Key(), rv.Type)
		}
		fields = append(fields, Field{Path: e.Key(), Direction: Direction(dir)})
	}
	return New(fields...)
}

// ParseJSON builds a SortSpec from extended JSON
// text such as `{"a": -1}`.
func ParseJSON(text string) (*SortSpec, error) {
	var raw bson.Raw
	if err := bson.UnmarshalExtJSON([]byte(text), false, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing sort pattern %q", text)
	}
	return Parse(raw)
}

// MustParseJSON is like ParseJSON but panics on error.
func MustParseJSON(text string) *SortSpec {
	s, err := ParseJSON(text)
	if err != nil {
		panic(err)
	}
	return s
}

// NumFields returns the number of fields in the pattern.
func (s *SortSpec) NumFields() int { return len(s.fields) }

// Fields returns the pattern. It must not be modified.
func (s *SortSpec) Fields() []Field { return s.fields }

// Equal returns true if s and o describe the same pattern.
func (s *SortSpec) Equal(o *SortSpec) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil || len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

func (s *SortSpec) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: %d", f.Path, int(f.Direction))
	}
	b.WriteByte('}')
	return b.String()
}

// SortKey returns the value that represents v when
// sorting in direction d. An array sorts by its
// smallest element ascending and by its largest
// element descending; an empty array sorts as Null.
// Nothing sorts as Null.
func SortKey(v value.Value, d Direction) value.Value {
	if !v.Tag().IsArray() {
		return v.FillEmpty()
	}
	elems := value.Elements(v)
	if len(elems) == 0 {
		return value.Null()
	}
	best := elems[0].FillEmpty()
	for _, e := range elems[1:] {
		e = e.FillEmpty()
		if c := value.Compare(e, best); (d == Ascending && c < 0) || (d == Descending && c > 0) {
			best = e
		}
	}
	return best
}

// Normalize replaces each element of key with its
// SortKey so that subsequent comparisons need not
// look inside arrays again. The result is a new slice
// of views; callers copy it if they retain it.
func (s *SortSpec) Normalize(key []value.Value) []value.Value {
	out := make([]value.Value, len(key))
	for i := range key {
		out[i] = SortKey(key[i], s.fields[i].Direction)
	}
	return out
}

// CheckKey validates a key tuple: it must have one
// value per field, and every value must be orderable.
func (s *SortSpec) CheckKey(key []value.Value) error {
	if len(key) != len(s.fields) {
		return errors.AssertionFailedf("sort key has %d values for %d fields", len(key), len(s.fields))
	}
	for i := range key {
		if err := checkOrderable(key[i]); err != nil {
			return errors.Wrapf(err, "field %q", s.fields[i].Path)
		}
	}
	return nil
}

func checkOrderable(v value.Value) error {
	if v.Tag().IsHandle() {
		return errors.Wrapf(ErrUnorderable, "value of type %s", v.Tag())
	}
	if v.Tag() == value.TagArray {
		for _, e := range v.AsArray().Values() {
			if err := checkOrderable(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// CompareTuples compares two key tuples and returns
// a negative number if a sorts before b, zero if they
// tie and a positive number if a sorts after b.
func (s *SortSpec) CompareTuples(a, b []value.Value) int {
	for i := range s.fields {
		d := s.fields[i].Direction
		c := value.Compare(SortKey(a[i], d), SortKey(b[i], d))
		if c != 0 {
			return c * int(d)
		}
	}
	return 0
}

// CompareNormalized is CompareTuples for tuples
// that have already been through Normalize. It does
// not look inside arrays again: the sort key of a
// nested array is the array itself.
func (s *SortSpec) CompareNormalized(a, b []value.Value) int {
	for i := range s.fields {
		if c := value.Compare(a[i], b[i]); c != 0 {
			return c * int(s.fields[i].Direction)
		}
	}
	return 0
}

// Compare compares two keys of a single-field
// pattern. For multi-field patterns, a and b must
// be arrays holding one value per field.
func (s *SortSpec) Compare(a, b value.Value) int {
	if len(s.fields) == 1 {
		d := s.fields[0].Direction
		return value.Compare(SortKey(a, d), SortKey(b, d)) * int(d)
	}
	return s.CompareTuples(value.Elements(a), value.Elements(b))
}

// BoundsUsable reports whether natural-order bounds
// [lo, hi] of a block can stand in for the bounds of
// its sort keys. This holds exactly when the block
// cannot contain arrays, whose sort key is one of
// their elements rather than the array itself.
func BoundsUsable(lo, hi value.Value) bool {
	return value.Rank(hi.Tag()) < value.ArrayRank || value.Rank(lo.Tag()) > value.ArrayRank
}

// ToValue wraps s in a TagSortSpec value.
func ToValue(s *SortSpec) value.Value {
	return value.Handle(value.TagSortSpec, s)
}

// FromValue returns the SortSpec referenced by v.
func FromValue(v value.Value) (*SortSpec, error) {
	if v.Tag() != value.TagSortSpec {
		return nil, errors.AssertionFailedf("expected %s, got %s", value.TagSortSpec, v.Tag())
	}
	s, ok := v.AsHandle().(*SortSpec)
	if !ok || s == nil {
		return nil, errors.AssertionFailedf("%s handle does not reference a sort spec", v.Tag())
	}
	return s, nil
}
