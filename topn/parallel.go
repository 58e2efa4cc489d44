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
	"context"

	"golang.org/x/sync/errgroup"
)

// AccumulateParallel folds batches into a new
// State using up to parallel workers. Each worker
// owns a State; the worker states are merged once
// every batch has been consumed.
//
// Batches are handed out in order but consumed
// concurrently, so the caller must assign disjoint
// StartIdx ranges. The context is checked between
// batches.
func AccumulateParallel(ctx context.Context, cfg Config, parallel int, batches []*Batch) (*State, error) {
	if parallel < 1 {
		parallel = 1
	}
	parallel = min(parallel, max(len(batches), 1))
	states := make([]*State, parallel)
	for i := range states {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		states[i] = s
	}

	g, ctx := errgroup.WithContext(ctx)
	work := make(chan *Batch)
	g.Go(func() error {
		defer close(work)
		for _, b := range batches {
			select {
			case work <- b:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for i := range states {
		s := states[i]
		g.Go(func() error {
			for b := range work {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := s.Accumulate(b); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, s := range states {
			s.Release()
		}
		return nil, err
	}

	out := states[0]
	for i, s := range states[1:] {
		if err := out.Merge(s); err != nil {
			for _, s := range states[i+1:] {
				s.Release()
			}
			return nil, err
		}
		s.Release()
	}
	return out, nil
}
