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

package report

import (
	"fmt"

	"github.com/blinklabs-io/gofota/tlv"
)

// Report field identifiers (client to server)
const (
	FieldIdVersion      uint8 = 1
	FieldIdModel        uint8 = 2
	FieldIdSerial       uint8 = 3
	FieldIdManufacturer uint8 = 4
)

// Response field identifiers (server to client)
const (
	FieldIdHostname  uint8 = 1
	FieldIdPort      uint8 = 2
	FieldIdPath      uint8 = 3
	FieldIdAvailable uint8 = 4
)

const (
	// MaxHostnameLength is the default limit for the hostname in a response
	MaxHostnameLength = 31
	// MaxPathLength is the default limit for the path in a response
	MaxPathLength = 9
)

// Report is the device identity sent to the server
type Report struct {
	Version      string
	Manufacturer string
	Serial       string
	Model        string
}

type reportField struct {
	id    uint8
	value string
}

// fields returns the report fields in wire order
func (r Report) fields() []reportField {
	return []reportField{
		{FieldIdVersion, r.Version},
		{FieldIdManufacturer, r.Manufacturer},
		{FieldIdSerial, r.Serial},
		{FieldIdModel, r.Model},
	}
}

// EncodedSize returns the exact number of bytes EncodeReport produces
func (r Report) EncodedSize() (int, error) {
	size := 0
	for _, f := range r.fields() {
		if len(f.value) > tlv.MaxValueLength {
			return 0, fmt.Errorf(
				"%w: field %d has %d bytes, limit is %d",
				tlv.ErrValueTooLong,
				f.id,
				len(f.value),
				tlv.MaxValueLength,
			)
		}
		size += tlv.FieldSize(len(f.value))
	}
	return size, nil
}

// EncodeReport encodes a report as version, manufacturer, serial and model fields
func EncodeReport(r Report) ([]byte, error) {
	enc := tlv.NewEncoder()
	for _, f := range r.fields() {
		if err := enc.PutString(f.id, f.value); err != nil {
			return nil, err
		}
	}
	return enc.Bytes(), nil
}

// EncodeReportTo encodes a report into dst and returns the number of bytes
// written. The size is checked before anything is written
func EncodeReportTo(r Report, dst []byte) (int, error) {
	size, err := r.EncodedSize()
	if err != nil {
		return 0, err
	}
	if len(dst) < size {
		return 0, fmt.Errorf(
			"%w: report needs %d bytes, have %d",
			tlv.ErrEncodeOverflow,
			size,
			len(dst),
		)
	}
	data, err := EncodeReport(r)
	if err != nil {
		return 0, err
	}
	return copy(dst, data), nil
}

// DecodeReport decodes a report. It is the server side counterpart of EncodeReport
func DecodeReport(data []byte) (*Report, error) {
	ret := &Report{}
	dec := tlv.NewDecoder(data)
	for !dec.Done() {
		id, err := dec.ReadId()
		if err != nil {
			return nil, err
		}
		var dest *string
		switch id {
		case FieldIdVersion:
			dest = &ret.Version
		case FieldIdModel:
			dest = &ret.Model
		case FieldIdSerial:
			dest = &ret.Serial
		case FieldIdManufacturer:
			dest = &ret.Manufacturer
		default:
			return nil, fmt.Errorf(
				"%w: offset %d: unknown report field %d",
				tlv.ErrDecodeMalformed,
				dec.Offset()-1,
				id,
			)
		}
		value, err := dec.ReadString(tlv.MaxValueLength)
		if err != nil {
			return nil, err
		}
		*dest = value
	}
	return ret, nil
}

// Response is the server's answer to a report. Hostname, Path and Port are
// only meaningful when HasNewVersion is true
type Response struct {
	HasNewVersion bool
	Hostname      string
	Path          string
	Port          uint32
}

// Limits bounds the string fields of a decoded response
type Limits struct {
	Hostname int
	Path     int
}

// DefaultLimits matches the buffers of the reference device firmware
var DefaultLimits = Limits{
	Hostname: MaxHostnameLength,
	Path:     MaxPathLength,
}

// EncodeResponse encodes a response. Empty strings and a zero port are omitted
func EncodeResponse(resp Response) ([]byte, error) {
	enc := tlv.NewEncoder()
	enc.PutBool(FieldIdAvailable, resp.HasNewVersion)
	if resp.Hostname != "" {
		if err := enc.PutString(FieldIdHostname, resp.Hostname); err != nil {
			return nil, err
		}
	}
	if resp.Port != 0 {
		enc.PutUint32(FieldIdPort, resp.Port)
	}
	if resp.Path != "" {
		if err := enc.PutString(FieldIdPath, resp.Path); err != nil {
			return nil, err
		}
	}
	return enc.Bytes(), nil
}

// DecodeResponse decodes a response using DefaultLimits
func DecodeResponse(data []byte) (*Response, error) {
	return DecodeResponseLimits(data, DefaultLimits)
}

// DecodeResponseLimits decodes a response. Unknown field identifiers, length
// mismatches, truncated fields and oversized strings all fail with
// tlv.ErrDecodeMalformed
func DecodeResponseLimits(data []byte, limits Limits) (*Response, error) {
	ret := &Response{}
	dec := tlv.NewDecoder(data)
	for !dec.Done() {
		id, err := dec.ReadId()
		if err != nil {
			return nil, err
		}
		switch id {
		case FieldIdHostname:
			ret.Hostname, err = dec.ReadString(limits.Hostname)
		case FieldIdPort:
			ret.Port, err = dec.ReadUint32()
		case FieldIdPath:
			ret.Path, err = dec.ReadString(limits.Path)
		case FieldIdAvailable:
			ret.HasNewVersion, err = dec.ReadBool()
		default:
			return nil, fmt.Errorf(
				"%w: offset %d: unknown response field %d",
				tlv.ErrDecodeMalformed,
				dec.Offset()-1,
				id,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("response field %d: %w", id, err)
		}
	}
	return ret, nil
}
