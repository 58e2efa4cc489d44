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

package value

import (
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// FromRawValue converts a BSON value into a Value.
// Documents and arrays are views of rv's bytes.
// BSON types outside the value model (ObjectId,
// binary data, regular expressions, ...) and
// undefined come back as Nothing.
func FromRawValue(rv bson.RawValue) Value {
	switch rv.Type {
	case bsontype.Double:
		return Double(rv.Double())
	case bsontype.String:
		return String(rv.StringValue())
	case bsontype.EmbeddedDocument:
		return Object(rv.Document())
	case bsontype.Array:
		return BSONArray(rv.Array())
	case bsontype.Boolean:
		return Bool(rv.Boolean())
	case bsontype.DateTime:
		return Date(rv.DateTime())
	case bsontype.Null:
		return Null()
	case bsontype.Int32:
		return Int32(rv.Int32())
	case bsontype.Int64:
		return Int64(rv.Int64())
	case bsontype.Decimal128:
		d, _, err := apd.NewFromString(rv.Decimal128().String())
		if err != nil {
			return Nothing()
		}
		return Decimal(d)
	}
	return Nothing()
}

// Lookup returns the value at the dotted path
// inside doc, or Nothing if it is absent.
func Lookup(doc bson.Raw, path ...string) Value {
	rv, err := doc.LookupErr(path...)
	if err != nil {
		return Nothing()
	}
	return FromRawValue(rv)
}

// AppendElement appends v to a BSON document or
// array under key. Nothing is written as undefined.
// Handle values cannot be represented and
// produce an error.
func AppendElement(dst []byte, key string, v Value) ([]byte, error) {
	switch v.tag {
	case TagNothing:
		return bsoncore.AppendUndefinedElement(dst, key), nil
	case TagNull:
		return bsoncore.AppendNullElement(dst, key), nil
	case TagBool:
		return bsoncore.AppendBooleanElement(dst, key, v.AsBool()), nil
	case TagInt32:
		return bsoncore.AppendInt32Element(dst, key, v.AsInt32()), nil
	case TagInt64:
		return bsoncore.AppendInt64Element(dst, key, v.AsInt64()), nil
	case TagDouble:
		return bsoncore.AppendDoubleElement(dst, key, v.AsDouble()), nil
	case TagDate:
		return bsoncore.AppendDateTimeElement(dst, key, v.AsDate()), nil
	case TagString:
		return bsoncore.AppendStringElement(dst, key, v.AsString()), nil
	case TagDecimal:
		d, err := primitive.ParseDecimal128(v.AsDecimal().String())
		if err != nil {
			return dst, errors.Wrapf(err, "converting %s to decimal128", v.AsDecimal())
		}
		return bsoncore.AppendDecimal128Element(dst, key, d), nil
	case TagObject:
		return bsoncore.AppendDocumentElement(dst, key, v.AsRaw()), nil
	case TagBSONArray:
		return bsoncore.AppendArrayElement(dst, key, v.AsRaw()), nil
	case TagArray:
		arr, err := AppendArray(nil, v.AsArray().vals)
		if err != nil {
			return dst, err
		}
		return bsoncore.AppendArrayElement(dst, key, arr), nil
	}
	return dst, errors.Newf("cannot encode %s as BSON", v.tag)
}

// AppendArray appends vals to dst as a complete BSON array.
func AppendArray(dst []byte, vals []Value) ([]byte, error) {
	idx, dst := bsoncore.AppendArrayStart(dst)
	var err error
	for i := range vals {
		dst, err = AppendElement(dst, strconv.Itoa(i), vals[i])
		if err != nil {
			return dst, err
		}
	}
	return bsoncore.AppendArrayEnd(dst, idx)
}

// ToBSON converts v into a standalone BSON value.
func ToBSON(v Value) (bson.RawValue, error) {
	// encode as the only element of a document and
	// slice the element back out
	idx, doc := bsoncore.AppendDocumentStart(nil)
	doc, err := AppendElement(doc, "v", v)
	if err != nil {
		return bson.RawValue{}, err
	}
	doc, err = bsoncore.AppendDocumentEnd(doc, idx)
	if err != nil {
		return bson.RawValue{}, err
	}
	return bson.Raw(doc).Lookup("v"), nil
}

// String returns the relaxed extended JSON
// form of v, or a placeholder for handles.
func (v Value) String() string {
	switch v.tag {
	case TagNothing:
		return "Nothing"
	case TagValueBlock, TagSortSpec, TagAggState:
		return "<" + v.tag.String() + ">"
	}
	rv, err := ToBSON(v)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return rv.String()
}
