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

// Array is an ordered, in-memory list of values.
type Array struct {
	vals []Value
}

// Len returns the number of elements in a.
func (a *Array) Len() int { return len(a.vals) }

// At returns the element at index i.
func (a *Array) At(i int) Value { return a.vals[i] }

// Append adds v to the end of a.
func (a *Array) Append(v Value) { a.vals = append(a.vals, v) }

// Values returns the elements of a.
// The slice must not be modified.
func (a *Array) Values() []Value { return a.vals }

// Elements returns the elements of an array value
// of either kind. BSON arrays are decoded; elements
// that cannot be decoded come back as Nothing.
func Elements(v Value) []Value {
	switch v.tag {
	case TagArray:
		return v.AsArray().vals
	case TagBSONArray:
		raws, err := v.AsRaw().Values()
		if err != nil {
			return nil
		}
		out := make([]Value, len(raws))
		for i := range raws {
			out[i] = FromRawValue(raws[i])
		}
		return out
	}
	return nil
}
