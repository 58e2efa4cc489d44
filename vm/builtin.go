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
	"github.com/cockroachdb/errors"

	"github.com/SnellerInc/blockagg/block"
	"github.com/SnellerInc/blockagg/sorting"
	"github.com/SnellerInc/blockagg/topn"
	"github.com/SnellerInc/blockagg/value"
)

// BuiltinOp identifies a builtin function.
type BuiltinOp uint8

const (
	// ValueBlockAggTopN(bitset, sortSpec, numKeyBlocks, keyBlock..., valueBlock)
	// accumulates into a Top-N state.
	ValueBlockAggTopN BuiltinOp = iota
	// ValueBlockAggBottomN is ValueBlockAggTopN for Bottom-N.
	ValueBlockAggBottomN
	// AggTopNFinalize(state, sortSpec) returns the
	// finalized array of a Top-N or Bottom-N state.
	AggTopNFinalize

	maxBuiltin
)

type binfo struct {
	name string
	// agg builtins read and replace
	// an accumulator slot
	agg   bool
	check func(nargs int) error
	eval  func(rt *Runtime, acc value.Value, args []value.Value) (value.Value, error)
}

var builtinInfo = [maxBuiltin]binfo{
	ValueBlockAggTopN: {
		name:  "valueBlockAggTopN",
		agg:   true,
		check: checkBlockAgg,
		eval: func(rt *Runtime, acc value.Value, args []value.Value) (value.Value, error) {
			return rt.blockAgg(topn.Top, acc, args)
		},
	},
	ValueBlockAggBottomN: {
		name:  "valueBlockAggBottomN",
		agg:   true,
		check: checkBlockAgg,
		eval: func(rt *Runtime, acc value.Value, args []value.Value) (value.Value, error) {
			return rt.blockAgg(topn.Bottom, acc, args)
		},
	},
	AggTopNFinalize: {
		name:  "aggTopNFinalize",
		check: fixedArgs(2),
		eval: func(rt *Runtime, _ value.Value, args []value.Value) (value.Value, error) {
			return rt.finalize(args[0], args[1])
		},
	},
}

var name2Builtin = make(map[string]BuiltinOp, maxBuiltin)

func init() {
	for op := BuiltinOp(0); op < maxBuiltin; op++ {
		name2Builtin[builtinInfo[op].name] = op
	}
}

func (b BuiltinOp) String() string {
	if b < maxBuiltin {
		return builtinInfo[b].name
	}
	return "UNKNOWN"
}

// Lookup returns the builtin called name.
func Lookup(name string) (BuiltinOp, bool) {
	op, ok := name2Builtin[name]
	return op, ok
}

// IsAggregate returns true if b reads and
// replaces an accumulator slot.
func (b BuiltinOp) IsAggregate() bool {
	return b < maxBuiltin && builtinInfo[b].agg
}

func mismatch(got, want int) error {
	return errors.AssertionFailedf("got %d arguments, expected %d", got, want)
}

func fixedArgs(n int) func(int) error {
	return func(nargs int) error {
		if nargs != n {
			return mismatch(nargs, n)
		}
		return nil
	}
}

// checkBlockAgg checks the arity of a block
// aggregate: bitset, sortSpec, numKeyBlocks,
// at least one key block and a value block.
func checkBlockAgg(nargs int) error {
	if nargs < 5 {
		return errors.AssertionFailedf("got %d arguments, expected at least 5", nargs)
	}
	return nil
}

// numKeyBlocks decodes the key block count; Null
// selects the single key form.
func numKeyBlocks(v value.Value) (int, error) {
	switch v.Tag() {
	case value.TagNull:
		return 1, nil
	case value.TagInt32, value.TagInt64:
		n := v.AsInt64()
		if n < 1 {
			return 0, errors.AssertionFailedf("numKeyBlocks must be positive, got %d", n)
		}
		return int(n), nil
	}
	return 0, errors.AssertionFailedf("numKeyBlocks must be Null or an integer, got %s", v.Tag())
}

func (rt *Runtime) blockAgg(dir topn.Direction, acc value.Value, args []value.Value) (value.Value, error) {
	spec, err := sorting.FromValue(args[1])
	if err != nil {
		return value.Value{}, errors.Wrap(err, "sortSpec")
	}
	nkeys, err := numKeyBlocks(args[2])
	if err != nil {
		return value.Value{}, err
	}
	if len(args) != 4+nkeys {
		return value.Value{}, mismatch(len(args), 4+nkeys)
	}
	bits, err := block.FromValue(args[0])
	if err != nil {
		return value.Value{}, errors.Wrap(err, "bitset")
	}
	keys := make([]block.ValueBlock, nkeys)
	for i := range keys {
		keys[i], err = block.FromValue(args[3+i])
		if err != nil {
			return value.Value{}, errors.Wrapf(err, "key block %d", i)
		}
	}
	vals, err := block.FromValue(args[3+nkeys])
	if err != nil {
		return value.Value{}, errors.Wrap(err, "value block")
	}
	if bits.Count() != vals.Count() {
		return value.Value{}, errors.AssertionFailedf("bitset has %d rows, value block has %d", bits.Count(), vals.Count())
	}
	sel, err := block.Selection(bits)
	if err != nil {
		return value.Value{}, err
	}

	state, err := rt.state(dir, spec, acc)
	if err != nil {
		return value.Value{}, err
	}
	err = state.Accumulate(&topn.Batch{
		Selection:   sel,
		Keys:        keys,
		Values:      vals,
		Precomputed: true,
	})
	if err != nil {
		return value.Value{}, err
	}
	return topn.ToValue(state), nil
}

// state returns the state held by acc,
// or a new one if acc is Nothing.
func (rt *Runtime) state(dir topn.Direction, spec *sorting.SortSpec, acc value.Value) (*topn.State, error) {
	if acc.IsNothing() {
		return rt.NewState(dir, spec, rt.MaxSize, rt.MemLimit)
	}
	s, err := topn.FromValue(acc)
	if err != nil {
		return nil, errors.Wrap(err, "accumulator")
	}
	if s.Direction() != dir {
		return nil, errors.AssertionFailedf("accumulator holds a %s state, expected %s", s.Direction(), dir)
	}
	if !s.SortSpec().Equal(spec) {
		return nil, errors.AssertionFailedf("accumulator sorts by %s, expected %s", s.SortSpec(), spec)
	}
	return s, nil
}

func (rt *Runtime) finalize(acc, specv value.Value) (value.Value, error) {
	spec, err := sorting.FromValue(specv)
	if err != nil {
		return value.Value{}, errors.Wrap(err, "sortSpec")
	}
	if acc.IsNothing() {
		return value.NewArray(), nil
	}
	s, err := topn.FromValue(acc)
	if err != nil {
		return value.Value{}, err
	}
	if !s.SortSpec().Equal(spec) {
		return value.Value{}, errors.AssertionFailedf("state sorts by %s, finalizing with %s", s.SortSpec(), spec)
	}
	return s.Finalize(), nil
}
