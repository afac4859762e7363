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

package mocktransport

import (
	"github.com/blinklabs-io/gofota/transport"
)

type EntryType int

const (
	EntryTypeNone         EntryType = 0
	EntryTypeReport       EntryType = 1
	EntryTypeOpenSession  EntryType = 2
	EntryTypeBlockRequest EntryType = 3
	EntryTypeBlock        EntryType = 4
	EntryTypeFatal        EntryType = 5
)

func (e EntryType) String() string {
	switch e {
	case EntryTypeReport:
		return "Report"
	case EntryTypeOpenSession:
		return "OpenSession"
	case EntryTypeBlockRequest:
		return "BlockRequest"
	case EntryTypeBlock:
		return "Block"
	case EntryTypeFatal:
		return "Fatal"
	default:
		return "None"
	}
}

// ConversationEntry is one step of a scripted exchange. Input fields are
// checked against what the client sends, output fields are returned to it
type ConversationEntry struct {
	Type EntryType
	// Report
	InputPath     string
	InputPayload  []byte
	OutputPayload []byte
	SendError     error
	ResponseError error
	ResponseHang  bool
	// OpenSession
	InputEndpoint transport.Endpoint
	OpenError     error
	// BlockRequest
	InputIndex   uint32
	RequestError error
	// Block
	OutputBlock transport.Block
	BlockError  error
	// Fatal
	FatalError error
}

// ConversationEntryReportNoUpgrade is a pre-defined conversation entry for a
// report exchange where the server has nothing newer
var ConversationEntryReportNoUpgrade = ConversationEntry{
	Type:          EntryTypeReport,
	InputPath:     "u",
	OutputPayload: []byte{0x04, 0x01, 0x00},
}

// NewBlockEntries returns the request/response entries for delivering image
// in blocks of blockSize bytes, with the total size as the hint on every block
func NewBlockEntries(image []byte, blockSize int) []ConversationEntry {
	var ret []ConversationEntry
	var index uint32
	for offset := 0; offset < len(image); offset += blockSize {
		end := min(offset+blockSize, len(image))
		ret = append(
			ret,
			ConversationEntry{
				Type:       EntryTypeBlockRequest,
				InputIndex: index,
			},
			ConversationEntry{
				Type: EntryTypeBlock,
				OutputBlock: transport.Block{
					Index:    index,
					Payload:  image[offset:end],
					SizeHint: uint32(len(image)), // #nosec G115
					More:     end < len(image),
				},
			},
		)
		index++
	}
	return ret
}
