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

package compr

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	ctl := bytes.Repeat([]byte("{\"a\": 1}\n"), 1000)
	for _, name := range []string{"", "zstd", "zstd-better", "s2"} {
		var buf bytes.Buffer
		w, err := NewWriter(name, &buf)
		require.NoError(t, err)
		_, err = w.Write(ctl)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		want := name
		if want == "zstd-better" {
			want = "zstd"
		}
		assert.Equal(t, want, Detect(bufio.NewReader(bytes.NewReader(buf.Bytes()))), name)

		r, err := NewReader(&buf)
		require.NoError(t, err)
		got, err := io.ReadAll(r)
		require.NoError(t, err)
		require.NoError(t, r.Close())
		assert.Equal(t, ctl, got, name)
	}
}

func TestShortInput(t *testing.T) {
	assert.Equal(t, "", Detect(bufio.NewReader(strings.NewReader("{}"))))
	r, err := NewReader(strings.NewReader(""))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnknown(t *testing.T) {
	_, err := NewWriter("lz4", io.Discard)
	assert.Error(t, err)
}
