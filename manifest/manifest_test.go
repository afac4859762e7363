// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testReport = report.Report{
	Version:      "1.0.0",
	Manufacturer: "Lab5e Demo Corp",
	Serial:       "0001",
	Model:        "model 01",
}

func testManifest(t *testing.T) *Manifest {
	m, err := New(testReport)
	require.NoError(t, err)
	m.Source = "fw.local:5684/fw"
	m.Size = 1024
	m.Blocks = 4
	m.Digest = []byte{0xde, 0xad, 0xbe, 0xef}
	m.StagedAt = time.Unix(1760745600, 0)
	return m
}

func TestNew(t *testing.T) {
	m, err := New(testReport)
	require.NoError(t, err)
	assert.Equal(t, testReport.Version, m.Version)
	assert.Equal(t, testReport.Manufacturer, m.Manufacturer)
	assert.Equal(t, testReport.Serial, m.Serial)
	assert.Equal(t, testReport.Model, m.Model)
	assert.Empty(t, m.Source)
}

func TestEncodeDecode(t *testing.T) {
	m := testManifest(t)
	data, err := m.Encode()
	require.NoError(t, err)
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m.Version, decoded.Version)
	assert.Equal(t, m.Source, decoded.Source)
	assert.Equal(t, m.Size, decoded.Size)
	assert.Equal(t, m.Blocks, decoded.Blocks)
	assert.Equal(t, m.Digest, decoded.Digest)
	assert.True(t, m.StagedAt.Equal(decoded.StagedAt))
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.new.manifest")
	m := testManifest(t)
	require.NoError(t, m.WriteFile(path))
	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, m.Serial, read.Serial)
	assert.NoError(t, read.Verify([]byte{0xde, 0xad, 0xbe, 0xef}))
	assert.ErrorIs(t, read.Verify([]byte{0x00}), ErrDigestMismatch)
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadFile(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(path, []byte{0xa1, 0x01}, 0o600))
	_, err = ReadFile(path)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotManifest)
}

func TestDecodeNotManifest(t *testing.T) {
	testDefs := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"array", []byte{0x83, 0x01, 0x02, 0x03}},
		{"image bytes", []byte{0x7f, 0x45, 0x4c, 0x46}},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := Decode(testDef.data)
			assert.ErrorIs(t, err, ErrNotManifest)
		})
	}
}
