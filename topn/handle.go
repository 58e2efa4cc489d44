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

package topn

import (
	"github.com/cockroachdb/errors"

	"github.com/SnellerInc/blockagg/value"
)

// ToValue wraps s in a TagAggState value.
func ToValue(s *State) value.Value {
	return value.Handle(value.TagAggState, s)
}

// FromValue returns the State referenced by v.
func FromValue(v value.Value) (*State, error) {
	if v.Tag() != value.TagAggState {
		return nil, errors.AssertionFailedf("expected %s, got %s", value.TagAggState, v.Tag())
	}
	s, ok := v.AsHandle().(*State)
	if !ok || s == nil {
		return nil, errors.AssertionFailedf("%s handle does not reference a top-n state", v.Tag())
	}
	return s, nil
}
