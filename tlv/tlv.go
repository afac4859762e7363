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

package tlv

import "errors"

const (
	// HeaderSize is the size of the identifier and length bytes preceding each value
	HeaderSize = 2
	// MaxValueLength is the largest value a single-byte length prefix can describe
	MaxValueLength = 255

	// Uint32Length is the required length of an unsigned 32-bit field
	Uint32Length = 4
	// BoolLength is the required length of a boolean field
	BoolLength = 1
)

var (
	// ErrEncodeOverflow is returned when a destination buffer cannot hold the encoded fields
	ErrEncodeOverflow = errors.New("tlv: destination buffer too small")
	// ErrValueTooLong is returned when a value does not fit its length limit
	ErrValueTooLong = errors.New("tlv: value too long")
	// ErrDecodeMalformed is returned for unknown identifiers, length mismatches,
	// truncated fields and trailing garbage
	ErrDecodeMalformed = errors.New("tlv: malformed payload")
)

// FieldSize returns the encoded size of a field carrying valueLen bytes
func FieldSize(valueLen int) int {
	return HeaderSize + valueLen
}
