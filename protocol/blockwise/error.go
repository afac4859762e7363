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

package blockwise

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gofota/protocol"
)

var (
	// ErrSessionClosed is returned when a completed or aborted session is used
	ErrSessionClosed = errors.New("blockwise: session closed")
	// ErrImageTooLarge is returned when the image exceeds the configured maximum size
	ErrImageTooLarge = errors.New("blockwise: image too large")
)

// SequenceError is returned when a block arrives out of order
type SequenceError struct {
	Expected uint32
	Received uint32
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf(
		"%s: received block %d, expected block %d",
		protocol.ErrSequencingViolation,
		e.Received,
		e.Expected,
	)
}

func (e *SequenceError) Unwrap() error {
	return protocol.ErrSequencingViolation
}

// SizeError is returned when the blocks disagree about the size of the image
type SizeError struct {
	// TotalSize is the size the session had adopted
	TotalSize uint64
	// Received is the conflicting size
	Received uint64
	Reason   string
}

func (e *SizeError) Error() string {
	return fmt.Sprintf(
		"%s: %s: total size %d, got %d",
		protocol.ErrSizeInconsistency,
		e.Reason,
		e.TotalSize,
		e.Received,
	)
}

func (e *SizeError) Unwrap() error {
	return protocol.ErrSizeInconsistency
}
