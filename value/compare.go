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
	"bytes"
	"math"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"go.mongodb.org/mongo-driver/bson"
)

// Compare returns -1, 0 or +1 as a is less than,
// equal to, or greater than b under the natural
// value ordering:
//
//	Nothing = Null < numbers < String < Object < arrays < Boolean < Date
//
// Numbers compare by numeric value regardless of
// their tag; NaN sorts below every other number and
// equals itself. Objects and arrays compare element
// by element, and a proper prefix sorts first.
//
// Handle values have no meaningful ordering and
// compare only by tag.
func Compare(a, b Value) int {
	ra, rb := Rank(a.tag), Rank(b.tag)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch ra {
	case rankNull:
		return 0
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return strings.Compare(a.AsString(), b.AsString())
	case rankObject:
		return compareObjects(a.AsRaw(), b.AsRaw())
	case rankArray:
		return compareArrays(a, b)
	case rankBool:
		return cmpInt(int(a.word), int(b.word))
	case rankDate:
		return cmpInt64(a.AsDate(), b.AsDate())
	}
	return 0
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func isInteger(t Tag) bool { return t == TagInt32 || t == TagInt64 }

func compareNumbers(a, b Value) int {
	switch {
	case isInteger(a.tag) && isInteger(b.tag):
		return cmpInt64(a.AsInt64(), b.AsInt64())
	case a.tag == TagDecimal || b.tag == TagDecimal:
		return compareDecimals(toDecimal(a), toDecimal(b))
	case a.tag == TagDouble && b.tag == TagDouble:
		return compareDoubles(a.AsDouble(), b.AsDouble())
	case a.tag == TagDouble:
		return -compareIntDouble(b.AsInt64(), a.AsDouble())
	default:
		return compareIntDouble(a.AsInt64(), b.AsDouble())
	}
}

func compareDoubles(x, y float64) int {
	xnan, ynan := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xnan && ynan:
		return 0
	case xnan:
		return -1
	case ynan:
		return 1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// compareIntDouble compares without losing
// precision for integers above 2^53
func compareIntDouble(i int64, d float64) int {
	if math.IsNaN(d) {
		return 1
	}
	if d >= math.MaxInt64 {
		return -1
	}
	if d < math.MinInt64 {
		return 1
	}
	t := math.Trunc(d)
	ti := int64(t)
	if i != ti {
		return cmpInt64(i, ti)
	}
	switch frac := d - t; {
	case frac > 0:
		return -1
	case frac < 0:
		return 1
	}
	return 0
}

func isNaN(d *apd.Decimal) bool {
	return d.Form == apd.NaN || d.Form == apd.NaNSignaling
}

func compareDecimals(x, y *apd.Decimal) int {
	xnan, ynan := isNaN(x), isNaN(y)
	switch {
	case xnan && ynan:
		return 0
	case xnan:
		return -1
	case ynan:
		return 1
	}
	return x.Cmp(y)
}

// toDecimal converts any numeric value to a decimal.
// Decimal values are returned without copying.
func toDecimal(v Value) *apd.Decimal {
	switch v.tag {
	case TagDecimal:
		return v.AsDecimal()
	case TagInt32, TagInt64:
		return apd.New(v.AsInt64(), 0)
	case TagDouble:
		return decimalFromFloat(v.AsDouble())
	}
	panic("toDecimal: not a number: " + v.tag.String())
}

func decimalFromFloat(f float64) *apd.Decimal {
	d := new(apd.Decimal)
	switch {
	case math.IsNaN(f):
		d.Form = apd.NaN
	case math.IsInf(f, 0):
		d.Form = apd.Infinite
		d.Negative = f < 0
	default:
		if _, err := d.SetFloat64(f); err != nil {
			d.Form = apd.NaN
		}
	}
	return d
}

func compareArrays(a, b Value) int {
	x, y := Elements(a), Elements(b)
	n := min(len(x), len(y))
	for i := 0; i < n; i++ {
		if c := Compare(x[i], y[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(x), len(y))
}

func compareObjects(a, b bson.Raw) int {
	if bytes.Equal(a, b) {
		return 0
	}
	x, errx := a.Elements()
	y, erry := b.Elements()
	if errx != nil || erry != nil {
		// malformed documents order by their bytes
		return bytes.Compare(a, b)
	}
	n := min(len(x), len(y))
	for i := 0; i < n; i++ {
		vx := FromRawValue(x[i].Value())
		vy := FromRawValue(y[i].Value())
		if c := cmpInt(Rank(vx.tag), Rank(vy.tag)); c != 0 {
			return c
		}
		if c := strings.Compare(x[i].Key(), y[i].Key()); c != 0 {
			return c
		}
		if c := Compare(vx, vy); c != 0 {
			return c
		}
	}
	return cmpInt(len(x), len(y))
}
