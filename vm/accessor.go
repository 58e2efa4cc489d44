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

package vm

import (
	"github.com/SnellerInc/blockagg/topn"
	"github.com/SnellerInc/blockagg/value"
)

// Accessor is a slot that an expression
// reads one of its inputs from.
type Accessor interface {
	Get() value.Value
}

// ViewAccessor borrows its value; the caller
// keeps ownership of whatever it references.
type ViewAccessor struct {
	v value.Value
}

func (a *ViewAccessor) Get() value.Value { return a.v }

// Reset points a at v.
func (a *ViewAccessor) Reset(v value.Value) { a.v = v }

type constant struct{ v value.Value }

func (c constant) Get() value.Value { return c.v }

// Constant returns an Accessor that always yields v.
func Constant(v value.Value) Accessor { return constant{v} }

// OwnedAccessor owns its value. Replacing or
// releasing an aggregation state held by the
// slot releases the state.
type OwnedAccessor struct {
	v value.Value
}

func (a *OwnedAccessor) Get() value.Value { return a.v }

// Reset replaces the value of a, taking
// ownership of v.
func (a *OwnedAccessor) Reset(v value.Value) {
	if a.v.Tag() == value.TagAggState && (v.Tag() != value.TagAggState || v.AsHandle() != a.v.AsHandle()) {
		if s, err := topn.FromValue(a.v); err == nil {
			s.Release()
		}
	}
	a.v = v
}

// Release empties a.
func (a *OwnedAccessor) Release() { a.Reset(value.Nothing()) }

// Copy returns an owned deep copy of the
// value of a. Aggregation states are cloned.
func (a *OwnedAccessor) Copy() value.Value {
	if a.v.Tag() == value.TagAggState {
		if s, err := topn.FromValue(a.v); err == nil {
			return topn.ToValue(s.Clone())
		}
	}
	return value.Copy(a.v)
}
