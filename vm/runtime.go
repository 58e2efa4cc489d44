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

// Package vm exposes the aggregation kernels
// as builtins of an expression runtime: inputs
// are read from accessor slots and aggregate
// builtins keep their state in an owned slot.
package vm

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/SnellerInc/blockagg/config"
	"github.com/SnellerInc/blockagg/sorting"
	"github.com/SnellerInc/blockagg/topn"
	"github.com/SnellerInc/blockagg/value"
)

// Runtime evaluates builtins.
type Runtime struct {
	// MaxSize and MemLimit configure the states
	// that aggregates create in empty slots.
	MaxSize  int
	MemLimit int32
	Logger   log.Logger
	Metrics  *topn.Metrics
}

// NewRuntime returns a Runtime configured by cfg.
// logger and m may be nil.
func NewRuntime(cfg config.Config, logger log.Logger, m *topn.Metrics) *Runtime {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Runtime{
		MaxSize:  cfg.MaxSize,
		MemLimit: cfg.MemLimit,
		Logger:   logger,
		Metrics:  m,
	}
}

func (rt *Runtime) logger() log.Logger {
	if rt.Logger == nil {
		return log.NewNopLogger()
	}
	return rt.Logger
}

// NewState returns an empty aggregation state.
func (rt *Runtime) NewState(dir topn.Direction, spec *sorting.SortSpec, maxSize int, memLimit int32) (*topn.State, error) {
	level.Debug(rt.logger()).Log("msg", "new aggregation state", "direction", dir, "maxSize", maxSize, "sort", spec)
	return topn.New(topn.Config{
		MaxSize:   maxSize,
		MemLimit:  memLimit,
		Direction: dir,
		SortSpec:  spec,
		Logger:    rt.logger(),
		Metrics:   rt.Metrics,
	})
}

// Expr is a compiled builtin call whose arguments
// are read from accessors on every evaluation.
type Expr struct {
	rt   *Runtime
	op   BuiltinOp
	args []Accessor
	acc  *OwnedAccessor
}

// Compile binds the builtin called name to its
// argument slots. Aggregate builtins need an
// accumulator slot; other builtins must not get one.
func (rt *Runtime) Compile(name string, acc *OwnedAccessor, args ...Accessor) (*Expr, error) {
	op, ok := Lookup(name)
	if !ok {
		return nil, errors.Newf("unknown builtin %q", name)
	}
	info := &builtinInfo[op]
	if info.agg != (acc != nil) {
		if info.agg {
			return nil, errors.Newf("%s needs an accumulator", name)
		}
		return nil, errors.Newf("%s does not take an accumulator", name)
	}
	if err := info.check(len(args)); err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	return &Expr{rt: rt, op: op, args: args, acc: acc}, nil
}

// Op returns the builtin e calls.
func (e *Expr) Op() BuiltinOp { return e.op }

// Eval evaluates e. For aggregates the result is
// the new accumulator, which is also stored into
// the accumulator slot. If an aggregate fails, the
// slot is released and left holding Nothing.
func (e *Expr) Eval() (value.Value, error) {
	args := make([]value.Value, len(e.args))
	for i := range e.args {
		args[i] = e.args[i].Get()
	}
	info := &builtinInfo[e.op]
	if !info.agg {
		v, err := info.eval(e.rt, value.Nothing(), args)
		if err != nil {
			return value.Value{}, errors.Wrapf(err, "%s", info.name)
		}
		return v, nil
	}
	v, err := info.eval(e.rt, e.acc.Get(), args)
	if err != nil {
		e.acc.Release()
		level.Debug(e.rt.logger()).Log("msg", "aggregate failed", "builtin", info.name, "err", err)
		return value.Value{}, errors.Wrapf(err, "%s", info.name)
	}
	e.acc.Reset(v)
	return v, nil
}
