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

package cbor_test

import (
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/blinklabs-io/gofota/cbor"
)

type decodeTestDefinition struct {
	CborHex   string
	Object    any
	BytesRead int
}

var decodeTests = []decodeTestDefinition{
	// Simple list of numbers
	{
		CborHex: "83010203",
		Object:  []any{uint64(1), uint64(2), uint64(3)},
	},
	// Multiple CBOR objects
	{
		CborHex:   "81018102",
		Object:    []any{uint64(1)},
		BytesRead: 2,
	},
}

func TestDecode(t *testing.T) {
	for _, test := range decodeTests {
		cborData, err := hex.DecodeString(test.CborHex)
		if err != nil {
			t.Fatalf("failed to decode CBOR hex: %s", err)
		}
		var dest any
		bytesRead, err := cbor.Decode(cborData, &dest)
		if err != nil {
			t.Fatalf("failed to decode CBOR: %s", err)
		}
		if test.BytesRead > 0 {
			if bytesRead != test.BytesRead {
				t.Fatalf("expected to read %d bytes, read %d instead", test.BytesRead, bytesRead)
			}
		}
		if !reflect.DeepEqual(dest, test.Object) {
			t.Fatalf("CBOR did not decode to expected object\n  got: %#v\n  wanted: %#v", dest, test.Object)
		}
	}
}

func TestDecodeRecord(t *testing.T) {
	cborData, _ := hex.DecodeString("a201626677021864")
	var dest testRecord
	if err := cbor.DecodeAll(cborData, &dest); err != nil {
		t.Fatalf("failed to decode CBOR: %s", err)
	}
	if dest.Name != "fw" || dest.Size != 100 {
		t.Fatalf("CBOR did not decode to expected record: %#v", dest)
	}
}

func TestDecodeStrict(t *testing.T) {
	testDefs := []struct {
		name    string
		cborHex string
	}{
		// Key 3 is not a field of testRecord
		{name: "unknown field", cborHex: "a20162667703f5"},
		// Key 1 appears twice
		{name: "duplicate key", cborHex: "a2016166016167"},
		{name: "trailing data", cborHex: "a10162667700"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			cborData, _ := hex.DecodeString(testDef.cborHex)
			var dest testRecord
			if err := cbor.DecodeAll(cborData, &dest); err == nil {
				t.Fatalf("did not get expected error")
			}
		})
	}
}

func TestMajorType(t *testing.T) {
	if mt, ok := cbor.MajorType([]byte{0xa2}); !ok || mt != cbor.CborTypeMap {
		t.Fatalf("expected map major type, got %x", mt)
	}
	if _, ok := cbor.MajorType(nil); ok {
		t.Fatalf("expected no major type for empty data")
	}
}
