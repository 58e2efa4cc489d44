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

// Command topn reads newline-delimited extended JSON
// documents and prints the top and/or bottom N of
// them under a sort pattern.
//
// Usage:
//
//	topn -s '{"score": -1}' -n 5 [-o field] [-d top|bottom|both] [file ...]
//
// Inputs may be compressed with zstd or s2. With no files,
// documents are read from stdin.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/SnellerInc/blockagg/compr"
	"github.com/SnellerInc/blockagg/config"
	"github.com/SnellerInc/blockagg/topn"
)

func newLogger(cfg *config.Config) (log.Logger, error) {
	opt, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller, "run", uuid.New().String())
	return level.NewFilter(logger, opt), nil
}

func rootCommand() *cobra.Command {
	var (
		opts       options
		configPath string
		maxSize    int
		parallel   int
		logLevel   string
		metrics    bool
		compress   string
	)
	cmd := &cobra.Command{
		Use:           "topn [file ...]",
		Short:         "Print the top and bottom N documents under a sort pattern",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			flags := cmd.Flags()
			if flags.Changed("n") {
				cfg.MaxSize = maxSize
			}
			if flags.Changed("parallel") {
				cfg.Parallelism = parallel
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(&cfg)
			if err != nil {
				return err
			}
			opts.config = cfg
			opts.logger = logger
			var reg *prometheus.Registry
			if metrics {
				reg = prometheus.NewRegistry()
				opts.metrics = topn.NewMetrics(reg)
			}

			inputs, err := openInputs(args)
			if err != nil {
				return err
			}
			defer closeAll(inputs)
			res, err := run(cmd.Context(), &opts, inputs)
			if err != nil {
				return err
			}
			out, err := compr.NewWriter(compress, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := res.write(out); err != nil {
				return err
			}
			if reg != nil {
				if err := writeMetrics(out, reg); err != nil {
					return err
				}
			}
			return out.Close()
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.pattern, "sort", "s", "", "sort pattern, e.g. '{\"a\": -1}'")
	flags.StringVarP(&opts.output, "output", "o", "", "dotted path of the output field (default: whole document)")
	flags.StringVarP(&opts.direction, "direction", "d", "both", "top, bottom or both")
	flags.StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	flags.IntVarP(&maxSize, "n", "n", config.DefaultMaxSize, "number of documents to keep")
	flags.IntVarP(&parallel, "parallel", "j", 1, "number of concurrent aggregation states")
	flags.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	flags.StringVar(&compress, "compress", "", "compress the output with zstd, zstd-better or s2")
	flags.BoolVar(&metrics, "metrics", false, "print aggregation metrics after the results")
	cmd.MarkFlagRequired("sort")
	return cmd
}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "topn: %s\n", err)
		os.Exit(1)
	}
}
