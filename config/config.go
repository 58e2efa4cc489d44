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

// Package config holds the settings of the
// aggregation runtime and the topn command.
package config

import (
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"
	"sigs.k8s.io/yaml"
)

// Config is the runtime configuration.
// It is read from YAML (or JSON) files:
//
//	maxSize: 10
//	memLimit: 104857600
//	blockSize: 1024
//	parallelism: 4
//	logLevel: debug
type Config struct {
	// MaxSize is the number of rows kept by
	// a state created from an empty slot.
	MaxSize int `json:"maxSize"`
	// MemLimit is the memory cap of a state, in bytes.
	MemLimit int32 `json:"memLimit"`
	// BlockSize is the number of rows the topn
	// command groups into one block.
	BlockSize int `json:"blockSize"`
	// Parallelism is the number of states the
	// topn command accumulates concurrently.
	Parallelism int `json:"parallelism"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `json:"logLevel"`
}

// DefaultMaxSize is the default number of rows kept.
const DefaultMaxSize = 10

// DefaultBlockSize is the default block size of the topn command.
const DefaultBlockSize = 1024

// Default returns the default configuration.
func Default() Config {
	return Config{
		MaxSize:     DefaultMaxSize,
		MemLimit:    DefaultMemLimit(),
		BlockSize:   DefaultBlockSize,
		Parallelism: 1,
		LogLevel:    "info",
	}
}

// DefaultMemLimit is one eighth of physical memory,
// capped to what a state can account for. It falls
// back to 100MiB where physical memory is unknown.
func DefaultMemLimit() int32 {
	total := memTotal()
	if total <= 0 {
		return 100 << 20
	}
	return int32(min(total/8, math.MaxInt32))
}

// Parse reads a configuration from YAML or JSON text.
// Fields that are absent keep their default values.
func Parse(text []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(text, &c); err != nil {
		return Config{}, errors.Wrap(err, "parsing configuration")
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the configuration file at path.
func Load(path string) (Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading configuration")
	}
	c, err := Parse(buf)
	if err != nil {
		return Config{}, errors.Wrapf(err, "%s", path)
	}
	return c, nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.MaxSize < 1 {
		return errors.Newf("maxSize must be at least 1, got %d", c.MaxSize)
	}
	if c.MemLimit < 1 {
		return errors.Newf("memLimit must be positive, got %d", c.MemLimit)
	}
	if c.BlockSize < 1 {
		return errors.Newf("blockSize must be at least 1, got %d", c.BlockSize)
	}
	if c.Parallelism < 1 {
		return errors.Newf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the go-kit level filter for LogLevel.
func (c *Config) Level() (level.Option, error) {
	switch c.LogLevel {
	case "debug":
		return level.AllowDebug(), nil
	case "info", "":
		return level.AllowInfo(), nil
	case "warn":
		return level.AllowWarn(), nil
	case "error":
		return level.AllowError(), nil
	}
	return nil, errors.Newf("unknown log level %q", c.LogLevel)
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
