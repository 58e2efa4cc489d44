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

package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/SnellerInc/blockagg/block"
	"github.com/SnellerInc/blockagg/compr"
	"github.com/SnellerInc/blockagg/config"
	"github.com/SnellerInc/blockagg/sorting"
	"github.com/SnellerInc/blockagg/topn"
	"github.com/SnellerInc/blockagg/value"
	"github.com/SnellerInc/blockagg/vm"
)

type options struct {
	pattern   string
	output    string
	direction string
	config    config.Config
	logger    log.Logger
	metrics   *topn.Metrics
}

func (o *options) directions() ([]topn.Direction, error) {
	switch o.direction {
	case "top":
		return []topn.Direction{topn.Top}, nil
	case "bottom":
		return []topn.Direction{topn.Bottom}, nil
	case "both", "":
		return []topn.Direction{topn.Top, topn.Bottom}, nil
	}
	return nil, errors.Newf("unknown direction %q", o.direction)
}

type result struct {
	dir topn.Direction
	out value.Value
}

type results []result

func (r results) write(w io.Writer) error {
	for i := range r {
		if _, err := fmt.Fprintf(w, "%s: %s\n", r[i].dir, r[i].out); err != nil {
			return err
		}
	}
	return nil
}

func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	var fams []*dto.MetricFamily
	fams, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range fams {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

type input struct {
	name string
	r    io.ReadCloser
}

func openInputs(args []string) ([]input, error) {
	if len(args) == 0 {
		return []input{{name: "stdin", r: io.NopCloser(os.Stdin)}}, nil
	}
	var inputs []input
	for _, arg := range args {
		f, err := os.Open(arg)
		if err != nil {
			closeAll(inputs)
			return nil, err
		}
		inputs = append(inputs, input{name: arg, r: f})
	}
	return inputs, nil
}

func closeAll(inputs []input) {
	for i := range inputs {
		inputs[i].r.Close()
	}
}

// readDocs decodes one extended JSON document per line.
// Empty lines are skipped. Compressed inputs are
// decompressed transparently.
func readDocs(in input) ([]bson.Raw, error) {
	r, err := compr.NewReader(in.r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", in.name)
	}
	defer r.Close()
	var docs []bson.Raw
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; s.Scan(); line++ {
		text := bytes.TrimSpace(s.Bytes())
		if len(text) == 0 {
			continue
		}
		var d bson.D
		if err := bson.UnmarshalExtJSON(text, false, &d); err != nil {
			return nil, errors.Wrapf(err, "%s:%d", in.name, line)
		}
		raw, err := bson.Marshal(d)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", in.name, line)
		}
		docs = append(docs, raw)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s", in.name)
	}
	return docs, nil
}

func splitPath(p string) []string { return strings.Split(p, ".") }

// makeBatches groups docs into batches of blockSize rows
// with one key block per sort field. Key blocks carry
// their bounds so that the kernel can skip them.
func makeBatches(docs []bson.Raw, spec *sorting.SortSpec, output string, blockSize int) []*topn.Batch {
	fields := spec.Fields()
	var batches []*topn.Batch
	for start := 0; start < len(docs); start += blockSize {
		end := min(start+blockSize, len(docs))
		b := &topn.Batch{
			Keys:        make([]block.ValueBlock, len(fields)),
			StartIdx:    int64(start),
			Precomputed: true,
		}
		for f := range fields {
			path := splitPath(fields[f].Path)
			keys := make([]value.Value, end-start)
			for i := range keys {
				keys[i] = value.Lookup(docs[start+i], path...)
			}
			var kb block.ValueBlock = block.NewHeterogeneous(keys...)
			if lo, hi, ok := block.ComputeBounds(keys); ok {
				kb = block.WithBounds(kb, lo, hi)
			}
			b.Keys[f] = kb
		}
		recs := make([]value.Value, end-start)
		for i := range recs {
			var out value.Value
			if output == "" {
				out = value.Object(docs[start+i])
			} else {
				out = value.Lookup(docs[start+i], splitPath(output)...)
			}
			recs[i] = value.NewArray(out, value.Int64(int64(start+i)))
		}
		b.Values = block.NewHeterogeneous(recs...)
		batches = append(batches, b)
	}
	return batches
}

func run(ctx context.Context, opts *options, inputs []input) (results, error) {
	logger := opts.logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if opts.pattern == "" {
		return nil, errors.New("a sort pattern is required")
	}
	spec, err := sorting.ParseJSON(opts.pattern)
	if err != nil {
		return nil, err
	}
	dirs, err := opts.directions()
	if err != nil {
		return nil, err
	}
	var docs []bson.Raw
	for i := range inputs {
		d, err := readDocs(inputs[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, d...)
	}
	batches := makeBatches(docs, spec, opts.output, opts.config.BlockSize)
	level.Info(logger).Log("msg", "read input", "docs", len(docs), "blocks", len(batches), "sort", spec)

	if opts.config.Parallelism > 1 {
		return runParallel(ctx, opts, logger, spec, dirs, batches)
	}
	return runBuiltins(opts, logger, spec, dirs, batches)
}

func runParallel(ctx context.Context, opts *options, logger log.Logger, spec *sorting.SortSpec, dirs []topn.Direction, batches []*topn.Batch) (results, error) {
	var res results
	for _, dir := range dirs {
		s, err := topn.AccumulateParallel(ctx, topn.Config{
			MaxSize:   opts.config.MaxSize,
			MemLimit:  opts.config.MemLimit,
			Direction: dir,
			SortSpec:  spec,
			Logger:    logger,
			Metrics:   opts.metrics,
		}, opts.config.Parallelism, batches)
		if err != nil {
			return nil, err
		}
		res = append(res, result{dir: dir, out: s.Finalize()})
		s.Release()
	}
	return res, nil
}

// runBuiltins evaluates the aggregation builtins
// block by block, the way an expression runtime would.
func runBuiltins(opts *options, logger log.Logger, spec *sorting.SortSpec, dirs []topn.Direction, batches []*topn.Batch) (results, error) {
	rt := vm.NewRuntime(opts.config, logger, opts.metrics)
	specv := sorting.ToValue(spec)
	nkeys := value.Null()
	if spec.NumFields() > 1 {
		nkeys = value.Int32(int32(spec.NumFields()))
	}

	var res results
	for _, dir := range dirs {
		name := "valueBlockAggTopN"
		if dir == topn.Bottom {
			name = "valueBlockAggBottomN"
		}
		var acc vm.OwnedAccessor
		var bits, vals vm.ViewAccessor
		keys := make([]vm.ViewAccessor, spec.NumFields())
		args := []vm.Accessor{&bits, vm.Constant(specv), vm.Constant(nkeys)}
		for i := range keys {
			args = append(args, &keys[i])
		}
		args = append(args, &vals)
		agg, err := rt.Compile(name, &acc, args...)
		if err != nil {
			return nil, err
		}
		finalize, err := rt.Compile("aggTopNFinalize", nil, &acc, vm.Constant(specv))
		if err != nil {
			return nil, err
		}
		for _, b := range batches {
			bits.Reset(block.ToValue(block.NewMono(value.Bool(true), b.Values.Count())))
			for i := range keys {
				keys[i].Reset(block.ToValue(b.Keys[i]))
			}
			vals.Reset(block.ToValue(b.Values))
			if _, err := agg.Eval(); err != nil {
				return nil, err
			}
		}
		out, err := finalize.Eval()
		acc.Release()
		if err != nil {
			return nil, err
		}
		res = append(res, result{dir: dir, out: out})
	}
	return res, nil
}
