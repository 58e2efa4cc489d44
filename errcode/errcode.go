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

// Package errcode attaches numeric diagnostic
// codes to errors so that callers (and tests)
// can identify a failure without matching on
// its message.
package errcode

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Well-known codes produced by this module.
const (
	// ExceededMemoryLimit is returned when an
	// aggregation state grows past its memory cap.
	ExceededMemoryLimit = 146
	// Unextractable is returned when a block that
	// forbids extraction is asked to extract.
	Unextractable = 8776400
)

type coded struct {
	cause error
	code  int
}

func (c *coded) Error() string { return c.cause.Error() }
func (c *coded) Cause() error  { return c.cause }
func (c *coded) Unwrap() error { return c.cause }

// Format implements fmt.Formatter so that
// %+v prints the code along with the chain.
func (c *coded) Format(s fmt.State, verb rune) { errors.FormatError(c, s, verb) }

// FormatError implements errors.Formatter.
func (c *coded) FormatError(p errors.Printer) error {
	if p.Detail() {
		p.Printf("code %d", c.code)
	}
	return c.cause
}

// New returns an error with the given code and message.
func New(code int, msg string) error {
	return &coded{cause: errors.NewWithDepth(1, msg), code: code}
}

// Newf is like New but formats its message.
func Newf(code int, format string, args ...any) error {
	return &coded{cause: errors.NewWithDepthf(1, format, args...), code: code}
}

// Wrap attaches code to err. Wrap(nil, ...) returns nil.
func Wrap(err error, code int) error {
	if err == nil {
		return nil
	}
	return &coded{cause: err, code: code}
}

// Code returns the outermost diagnostic code
// attached to err, if any.
func Code(err error) (int, bool) {
	var c *coded
	if errors.As(err, &c) {
		return c.code, true
	}
	return 0, false
}

// Is reports whether err carries the given code.
func Is(err error, code int) bool {
	got, ok := Code(err)
	return ok && got == code
}
