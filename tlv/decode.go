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
	"encoding/binary"
	"fmt"
)

// Decoder is a bounded read cursor over a TLV byte sequence
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder returns a Decoder positioned at the start of data
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Done reports whether the cursor is exactly at the end of the input
func (d *Decoder) Done() bool {
	return d.pos == len(d.data)
}

// Offset returns the current cursor position
func (d *Decoder) Offset() int {
	return d.pos
}

// ReadId consumes a field identifier
func (d *Decoder) ReadId() (uint8, error) {
	if d.pos >= len(d.data) {
		return 0, d.malformed("missing field identifier")
	}
	id := d.data[d.pos]
	d.pos++
	return id, nil
}

// ReadBytes consumes a length byte and the value following it. The returned
// slice is a copy. A declared length above maxLen is rejected as an overflow
func (d *Decoder) ReadBytes(maxLen int) ([]byte, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, fmt.Errorf(
			"%w: %w: offset %d: length %d exceeds limit %d",
			ErrDecodeMalformed,
			ErrValueTooLong,
			d.pos-1,
			n,
			maxLen,
		)
	}
	value, err := d.take(n)
	if err != nil {
		return nil, err
	}
	ret := make([]byte, len(value))
	copy(ret, value)
	return ret, nil
}

// ReadString consumes a string field value
func (d *Decoder) ReadString(maxLen int) (string, error) {
	value, err := d.ReadBytes(maxLen)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// ReadUint32 consumes a big-endian unsigned 32-bit field value. The length byte must be 4
func (d *Decoder) ReadUint32() (uint32, error) {
	if err := d.expectLength(Uint32Length); err != nil {
		return 0, err
	}
	value, err := d.take(Uint32Length)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(value), nil
}

// ReadBool consumes a boolean field value. The length byte must be 1 and the value 0 or 1
func (d *Decoder) ReadBool() (bool, error) {
	if err := d.expectLength(BoolLength); err != nil {
		return false, err
	}
	value, err := d.take(BoolLength)
	if err != nil {
		return false, err
	}
	switch value[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, d.malformed(
			fmt.Sprintf("invalid boolean value 0x%02x", value[0]),
		)
	}
}

func (d *Decoder) readLength() (int, error) {
	if d.pos >= len(d.data) {
		return 0, d.malformed("missing field length")
	}
	n := int(d.data[d.pos])
	d.pos++
	return n, nil
}

func (d *Decoder) expectLength(want int) error {
	n, err := d.readLength()
	if err != nil {
		return err
	}
	if n != want {
		d.pos--
		return d.malformed(
			fmt.Sprintf("field length %d, expected %d", n, want),
		)
	}
	return nil
}

func (d *Decoder) take(n int) ([]byte, error) {
	if n > len(d.data)-d.pos {
		return nil, d.malformed(
			fmt.Sprintf(
				"field needs %d bytes, %d remaining",
				n,
				len(d.data)-d.pos,
			),
		)
	}
	value := d.data[d.pos : d.pos+n]
	d.pos += n
	return value, nil
}

func (d *Decoder) malformed(reason string) error {
	return fmt.Errorf("%w: offset %d: %s", ErrDecodeMalformed, d.pos, reason)
}
