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

import "github.com/SnellerInc/blockagg/value"

// Pair runs a Top and a Bottom state over
// the same input.
type Pair struct {
	Top    *State
	Bottom *State
}

// NewPair returns a Pair of empty states.
// cfg.Direction is ignored.
func NewPair(cfg Config) (*Pair, error) {
	cfg.Direction = Top
	top, err := New(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Direction = Bottom
	bottom, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Pair{Top: top, Bottom: bottom}, nil
}

// Accumulate folds b into both states.
// On error both states are released.
func (p *Pair) Accumulate(b *Batch) error {
	if err := p.Top.Accumulate(b); err != nil {
		p.Bottom.Release()
		return err
	}
	if err := p.Bottom.Accumulate(b); err != nil {
		p.Top.Release()
		return err
	}
	return nil
}

// Merge merges o into p.
// On error both states of p are released.
func (p *Pair) Merge(o *Pair) error {
	if err := p.Top.Merge(o.Top); err != nil {
		p.Bottom.Release()
		return err
	}
	if err := p.Bottom.Merge(o.Bottom); err != nil {
		p.Top.Release()
		return err
	}
	return nil
}

// Finalize finalizes both states.
func (p *Pair) Finalize() (top, bottom value.Value) {
	return p.Top.Finalize(), p.Bottom.Finalize()
}
