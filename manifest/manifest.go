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

// Package manifest records what was staged by a completed download: the
// device identity that was reported, where the image came from, its size and
// its digest.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/blinklabs-io/gofota/cbor"
	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/jinzhu/copier"
)

var (
	// ErrDigestMismatch is returned by Verify when the image does not match the manifest
	ErrDigestMismatch = errors.New("manifest: digest mismatch")
	// ErrNotManifest is returned by Decode for data that is not a CBOR map
	ErrNotManifest = errors.New("manifest: not a manifest")
)

// Manifest describes a staged firmware image
type Manifest struct {
	// Identity reported when the image was fetched
	Version      string `cbor:"1,keyasint"`
	Manufacturer string `cbor:"2,keyasint"`
	Serial       string `cbor:"3,keyasint"`
	Model        string `cbor:"4,keyasint"`
	// Source is the download endpoint
	Source   string    `cbor:"5,keyasint"`
	Size     uint64    `cbor:"6,keyasint"`
	Blocks   uint64    `cbor:"7,keyasint"`
	Digest   []byte    `cbor:"8,keyasint,omitempty"`
	StagedAt time.Time `cbor:"9,keyasint"`
}

// New returns a manifest carrying the identity fields of r
func New(r report.Report) (*Manifest, error) {
	m := &Manifest{}
	if err := copier.Copy(m, &r); err != nil {
		return nil, fmt.Errorf("manifest: copy identity: %w", err)
	}
	return m, nil
}

// Encode returns the CBOR encoding of the manifest
func (m *Manifest) Encode() ([]byte, error) {
	return cbor.Encode(m)
}

// Decode parses a CBOR encoded manifest
func Decode(data []byte) (*Manifest, error) {
	if mt, ok := cbor.MajorType(data); !ok || mt != cbor.CborTypeMap {
		return nil, ErrNotManifest
	}
	m := &Manifest{}
	if err := cbor.DecodeAll(data, m); err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	return m, nil
}

// WriteFile writes the manifest to path
func (m *Manifest) WriteFile(path string) error {
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a manifest written by WriteFile
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return Decode(data)
}

// Verify compares digest against the recorded digest
func (m *Manifest) Verify(digest []byte) error {
	if !bytes.Equal(m.Digest, digest) {
		return fmt.Errorf(
			"%w: recorded %x, got %x",
			ErrDigestMismatch,
			m.Digest,
			digest,
		)
	}
	return nil
}
