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

// Package tlv implements the type-length-value primitives used by the FOTA
// report exchange.
//
// Every field is a single identifier byte, a single length byte and exactly
// length bytes of value:
//
//	[ID][LEN][VALUE...]
//
// The format is intentionally not self-describing. Identifiers form a closed
// set agreed on by both ends, so there is no skip logic for unknown fields and
// no value can exceed MaxValueLength bytes.
//
// # Encoding
//
// Encoder appends fields to a growable buffer:
//
//	enc := tlv.NewEncoder()
//	_ = enc.PutString(1, "1.2.3")
//	data := enc.Bytes()
//
// # Decoding
//
// Decoder is a bounded cursor. Each Read* call consumes one complete field
// value and never reads past the end of the input:
//
//	dec := tlv.NewDecoder(data)
//	for !dec.Done() {
//	    id, err := dec.ReadId()
//	    ...
//	}
//
// Any truncated field, length mismatch or unknown identifier is reported as
// ErrDecodeMalformed.
package tlv
