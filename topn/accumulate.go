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
	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"

	"github.com/SnellerInc/blockagg/block"
	"github.com/SnellerInc/blockagg/sorting"
	"github.com/SnellerInc/blockagg/value"
)

// Batch is the input of one accumulator step.
type Batch struct {
	// Selection marks the rows that take part.
	// A nil Selection selects every row.
	Selection *bitset.BitSet
	// Keys holds one block per sort field.
	Keys []block.ValueBlock
	// Values holds the output value of each row.
	Values block.ValueBlock
	// StartIdx is the logical position of the
	// first row of the batch in the whole stream.
	StartIdx int64
	// Precomputed indicates that the rows of
	// Values already are [outputValue, index]
	// records, and StartIdx is not used.
	Precomputed bool
}

func (b *Batch) rows() int { return b.Values.Count() }

func (b *Batch) validate(nfields int) error {
	if b.Values == nil {
		return errors.AssertionFailedf("batch has no value block")
	}
	if len(b.Keys) != nfields {
		return errors.AssertionFailedf("batch has %d key blocks for %d sort fields", len(b.Keys), nfields)
	}
	n := b.rows()
	for i := range b.Keys {
		if c := b.Keys[i].Count(); c != n {
			return errors.AssertionFailedf("key block %d has %d rows, value block has %d", i, c, n)
		}
	}
	if b.Selection != nil {
		if i, ok := b.Selection.NextSet(uint(n)); ok {
			return errors.AssertionFailedf("selection bit %d is past the %d rows of the batch", i, n)
		}
	}
	return nil
}

// selectsNone returns true if no row is selected.
func (b *Batch) selectsNone() bool {
	return b.rows() == 0 || (b.Selection != nil && b.Selection.None())
}

// selectsAll returns true if every row is selected.
func (b *Batch) selectsAll() bool {
	return b.Selection == nil || int(b.Selection.Count()) == b.rows()
}

func (b *Batch) selected(i int) bool {
	return b.Selection == nil || b.Selection.Test(uint(i))
}

// record returns the output record of row i
// given the row's output value.
func (b *Batch) record(i int, v value.Value) (value.Value, error) {
	if !b.Precomputed {
		return value.NewArray(v, value.Int64(b.StartIdx+int64(i))), nil
	}
	if v.Tag() != value.TagArray || v.AsArray().Len() != 2 {
		return value.Value{}, errors.AssertionFailedf("row %d: expected a [value, index] record, got %s", i, v.Tag())
	}
	return v, nil
}

// Accumulate folds the selected rows of b into s.
//
// The step avoids decoding blocks where it can:
// nothing is extracted when no row is selected;
// a single-key block whose bounds prove it cannot
// improve a full state is skipped; a state of size
// one takes the extreme row of a homogeneous key
// block directly. Otherwise the keys are extracted
// and the value block is extracted only once some
// row is known to enter the state.
//
// If Accumulate returns an error, s has been
// released and must not be used again.
func (s *State) Accumulate(b *Batch) error {
	if s.released {
		return errors.AssertionFailedf("accumulating into a released top-n state")
	}
	if err := s.accumulate(b); err != nil {
		s.Release()
		return err
	}
	return nil
}

func (s *State) accumulate(b *Batch) error {
	if err := b.validate(s.spec.NumFields()); err != nil {
		return err
	}
	if b.selectsNone() {
		s.metrics.block(PathEmpty)
		return nil
	}
	if len(b.Keys) == 1 {
		if s.prunable(b.Keys[0]) {
			s.metrics.block(PathPruned)
			level.Debug(s.logger).Log("msg", "skipped block by bounds", "rows", b.rows(), "start", b.StartIdx)
			return nil
		}
		if s.maxSize == 1 && b.selectsAll() {
			if amm, ok := b.Keys[0].(block.ArgMinMaxer); ok {
				s.metrics.block(PathArgMinMax)
				return s.accumulateExtreme(b, amm)
			}
		}
	}
	s.metrics.block(PathGeneral)
	return s.accumulateRows(b)
}

// prunable returns true if the bounds of a single
// key block prove that none of its rows improves s.
// Bounds are in natural order, which coincides with
// sort key order only if the block holds no arrays.
func (s *State) prunable(keys block.ValueBlock) bool {
	if !s.Full() {
		return false
	}
	lo, hi, ok := block.Bounds(keys)
	if !ok {
		return false
	}
	lo, hi = lo.FillEmpty(), hi.FillEmpty()
	if !sorting.BoundsUsable(lo, hi) {
		return false
	}
	best := []value.Value{lo}
	if cand := []value.Value{hi}; s.better(cand, best) {
		best = cand
	}
	return !s.improves(best)
}

// accumulateExtreme admits the best row of a
// fully selected block whose extreme positions
// are known. The value block is read with At only.
func (s *State) accumulateExtreme(b *Batch, keys block.ArgMinMaxer) error {
	wantMin := (s.direction == Top) == (s.spec.Fields()[0].Direction == sorting.Ascending)
	var i int
	var ok bool
	if wantMin {
		i, ok = keys.ArgMin()
	} else {
		i, ok = keys.ArgMax()
	}
	if !ok {
		return nil
	}
	key := []value.Value{b.Keys[0].At(i)}
	if err := s.spec.CheckKey(key); err != nil {
		return err
	}
	key = s.spec.Normalize(key)
	if !s.improves(key) {
		return nil
	}
	rec, err := b.record(i, b.Values.At(i))
	if err != nil {
		return err
	}
	return s.admit(key, rec)
}

func (s *State) accumulateRows(b *Batch) error {
	cols := make([][]value.Value, len(b.Keys))
	for j := range b.Keys {
		col, err := block.ExtractFilled(b.Keys[j])
		if err != nil {
			return errors.Wrapf(err, "extracting key block %d", j)
		}
		cols[j] = col
	}
	var vals []value.Value
	key := make([]value.Value, len(cols))
	for i, n := 0, b.rows(); i < n; i++ {
		if !b.selected(i) {
			continue
		}
		for j := range cols {
			key[j] = cols[j][i]
		}
		if err := s.spec.CheckKey(key); err != nil {
			return errors.Wrapf(err, "row %d", b.StartIdx+int64(i))
		}
		norm := s.spec.Normalize(key)
		if !s.improves(norm) {
			continue
		}
		if vals == nil {
			var err error
			vals, err = block.Extract(b.Values)
			if err != nil {
				return errors.Wrap(err, "extracting value block")
			}
			if len(vals) != n {
				return errors.AssertionFailedf("value block extracted %d of %d rows", len(vals), n)
			}
		}
		rec, err := b.record(i, vals[i])
		if err != nil {
			return err
		}
		if err := s.admit(norm, rec); err != nil {
			return err
		}
	}
	return nil
}
