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

// Memory accounting sizes, in bytes.
const (
	// InlineSize is charged for every value;
	// it covers the tag and the inline word.
	InlineSize = 8
	// DecimalSize is the payload of a decimal128.
	DecimalSize = 16
	// ArrayHeaderSize is the fixed cost of an Array.
	ArrayHeaderSize = 16
)

// Size returns the number of bytes charged
// against a memory budget for owning v.
// Handles are charged only their inline size.
func Size(v Value) int {
	return InlineSize + payloadSize(v)
}

func payloadSize(v Value) int {
	switch v.tag {
	case TagDecimal:
		return DecimalSize
	case TagString:
		return len(v.AsString())
	case TagObject, TagBSONArray:
		return len(v.AsRaw())
	case TagArray:
		n := ArrayHeaderSize
		for _, e := range v.AsArray().vals {
			n += Size(e)
		}
		return n
	}
	return 0
}
