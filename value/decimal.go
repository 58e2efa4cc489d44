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
	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
)

// decimalContext rounds to the 34 significant
// digits of an IEEE 754 decimal128.
var decimalContext = apd.Context{
	Precision:   34,
	MaxExponent: 6144,
	MinExponent: -6143,
	Traps:       apd.DefaultTraps,
	Rounding:    apd.RoundHalfEven,
}

// ParseDecimal parses s into a Decimal value,
// rounding to decimal128 precision.
func ParseDecimal(s string) (Value, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Value{}, errors.Wrapf(err, "parsing decimal %q", s)
	}
	if _, err := decimalContext.Round(d, d); err != nil {
		return Value{}, errors.Wrapf(err, "rounding decimal %q", s)
	}
	return Decimal(d), nil
}

// MustDecimal is like ParseDecimal but panics
// on malformed input. It is meant for constants
// and tests.
func MustDecimal(s string) Value {
	v, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

// DecimalFromInt64 returns i as a Decimal value.
func DecimalFromInt64(i int64) Value {
	return Decimal(apd.New(i, 0))
}
