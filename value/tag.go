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

import "fmt"

// Tag identifies the dynamic type of a Value.
type Tag uint8

const (
	// TagNothing is the absence of a value.
	// It is the zero Tag, so the zero Value is Nothing.
	TagNothing Tag = iota
	TagNull
	TagBool
	TagInt32
	TagInt64
	TagDouble
	TagDecimal
	// TagDate is milliseconds since the Unix epoch.
	TagDate
	TagString
	// TagObject is a BSON document.
	TagObject
	// TagBSONArray is a BSON array.
	TagBSONArray
	// TagArray is an in-memory *Array.
	TagArray

	// handle tags; the payload is opaque to this package
	TagValueBlock
	TagSortSpec
	TagAggState

	numTags
)

var tagNames = [numTags]string{
	TagNothing:    "Nothing",
	TagNull:       "Null",
	TagBool:       "Boolean",
	TagInt32:      "NumberInt32",
	TagInt64:      "NumberInt64",
	TagDouble:     "NumberDouble",
	TagDecimal:    "NumberDecimal",
	TagDate:       "Date",
	TagString:     "String",
	TagObject:     "bsonObject",
	TagBSONArray:  "bsonArray",
	TagArray:      "Array",
	TagValueBlock: "valueBlock",
	TagSortSpec:   "sortSpec",
	TagAggState:   "aggState",
}

func (t Tag) String() string {
	if t < numTags {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// IsNumeric returns true for the number tags.
func (t Tag) IsNumeric() bool {
	return t == TagInt32 || t == TagInt64 || t == TagDouble || t == TagDecimal
}

// IsArray returns true for both array kinds.
func (t Tag) IsArray() bool {
	return t == TagArray || t == TagBSONArray
}

// IsHandle returns true for tags whose payload
// is an opaque reference rather than data.
func (t Tag) IsHandle() bool {
	return t >= TagValueBlock && t < numTags
}

// canonical type ranks; values of different
// rank compare by rank alone
const (
	rankNull   = 5
	rankNumber = 10
	rankString = 15
	rankObject = 20
	rankArray  = 25
	rankBool   = 40
	rankDate   = 45
	rankHandle = 100
)

// Rank returns the canonical ordering rank of t.
// Values of different tags but equal rank
// (e.g. the numeric tags) compare by content.
func Rank(t Tag) int {
	switch t {
	case TagNothing, TagNull:
		return rankNull
	case TagInt32, TagInt64, TagDouble, TagDecimal:
		return rankNumber
	case TagString:
		return rankString
	case TagObject:
		return rankObject
	case TagArray, TagBSONArray:
		return rankArray
	case TagBool:
		return rankBool
	case TagDate:
		return rankDate
	default:
		return rankHandle + int(t)
	}
}

// ArrayRank is the rank shared by both array tags.
const ArrayRank = rankArray
