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

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Encoder appends TLV fields to a growable buffer
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder
func NewEncoder() *Encoder {
	return &Encoder{}
}

// PutBytes appends a field with a raw value. The encoder is left untouched if the
// value is longer than MaxValueLength
func (e *Encoder) PutBytes(id uint8, value []byte) error {
	if len(value) > MaxValueLength {
		return fmt.Errorf(
			"%w: field %d has %d bytes, limit is %d",
			ErrValueTooLong,
			id,
			len(value),
			MaxValueLength,
		)
	}
	e.buf.Grow(FieldSize(len(value)))
	e.buf.WriteByte(id)
	e.buf.WriteByte(uint8(len(value)))
	e.buf.Write(value)
	return nil
}

// PutString appends a string field. No terminator is written
func (e *Encoder) PutString(id uint8, value string) error {
	return e.PutBytes(id, []byte(value))
}

// PutUint32 appends a big-endian unsigned 32-bit field
func (e *Encoder) PutUint32(id uint8, value uint32) {
	var tmp [Uint32Length]byte
	binary.BigEndian.PutUint32(tmp[:], value)
	// A 4-byte value can never exceed the length limit
	_ = e.PutBytes(id, tmp[:])
}

// PutBool appends a boolean field encoded as a single 0 or 1 byte
func (e *Encoder) PutBool(id uint8, value bool) {
	var b uint8
	if value {
		b = 1
	}
	_ = e.PutBytes(id, []byte{b})
}

// Len returns the number of encoded bytes
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Bytes returns the encoded fields. The slice is only valid until the next Put call
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// CopyTo copies the encoded fields into dst. Nothing is written if dst is too small
func (e *Encoder) CopyTo(dst []byte) (int, error) {
	if len(dst) < e.buf.Len() {
		return 0, fmt.Errorf(
			"%w: need %d bytes, have %d",
			ErrEncodeOverflow,
			e.buf.Len(),
			len(dst),
		)
	}
	return copy(dst, e.buf.Bytes()), nil
}
