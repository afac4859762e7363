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
	"github.com/blinklabs-io/gofota/sink"
)

// Decision tells the caller what to do after a block was handled
type Decision int

const (
	// DecisionRequestNext asks for the block at ExpectedIndex
	DecisionRequestNext Decision = iota
	// DecisionComplete means the image is complete and the sink finalized
	DecisionComplete
	// DecisionAbort means the transfer failed and the session is closed
	DecisionAbort
)

func (d Decision) String() string {
	switch d {
	case DecisionRequestNext:
		return "RequestNext"
	case DecisionComplete:
		return "Complete"
	case DecisionAbort:
		return "Abort"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Session reassembles one image download. Blocks must arrive strictly in
// order and agree on the total size; any violation aborts the session. A
// Session is not reusable: a new download needs a new Session
type Session struct {
	sink          sink.Sink
	maxImageSize  uint64
	state         protocol.State
	expectedIndex uint32
	bytesReceived uint64
	totalSize     uint64
	blocks        int
	finalized     bool
	err           error
}

// NewSession returns an idle session that writes accepted payloads to s
func NewSession(s sink.Sink, cfg *Config) *Session {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	return &Session{
		sink:         s,
		maxImageSize: cfg.MaxImageSize,
		state:        StateIdle,
	}
}

// State returns the current session state
func (s *Session) State() protocol.State {
	return s.state
}

// ExpectedIndex returns the index of the next block to request
func (s *Session) ExpectedIndex() uint32 {
	return s.expectedIndex
}

// BytesReceived returns the number of bytes accepted so far
func (s *Session) BytesReceived() uint64 {
	return s.bytesReceived
}

// TotalSize returns the image size, or 0 while it is unknown
func (s *Session) TotalSize() uint64 {
	return s.totalSize
}

// Blocks returns the number of accepted blocks
func (s *Session) Blocks() int {
	return s.blocks
}

// IsComplete reports whether every byte of an image of known size was received
func (s *Session) IsComplete() bool {
	return s.totalSize > 0 && s.bytesReceived == s.totalSize
}

// Err returns the error that aborted the session, if any
func (s *Session) Err() error {
	return s.err
}

// AcceptBlock handles one delivered block. sizeHint is the total size
// announced by the server, 0 if absent, and more is the server's
// continuation flag
func (s *Session) AcceptBlock(
	index uint32,
	payload []byte,
	sizeHint uint32,
	more bool,
) (Decision, error) {
	if StateMap.IsTerminal(s.state) {
		return DecisionAbort, fmt.Errorf(
			"%w: block %d received in state %s",
			ErrSessionClosed,
			index,
			s.state,
		)
	}
	if s.sink == nil {
		return DecisionAbort, s.abort(protocol.ErrNoHandler)
	}
	if s.state == StateIdle {
		if err := s.transition(EventStart); err != nil {
			return DecisionAbort, s.abort(err)
		}
	}
	if index != s.expectedIndex {
		return DecisionAbort, s.abort(
			&SequenceError{
				Expected: s.expectedIndex,
				Received: index,
			},
		)
	}
	if len(payload) == 0 {
		return DecisionAbort, s.abort(
			fmt.Errorf("block %d: %w", index, protocol.ErrEmptyPayload),
		)
	}
	if sizeHint != 0 {
		hint := uint64(sizeHint)
		switch {
		case s.totalSize == 0:
			if hint > s.maxImageSize {
				return DecisionAbort, s.abort(
					fmt.Errorf(
						"%w: announced size %d, limit %d",
						ErrImageTooLarge,
						hint,
						s.maxImageSize,
					),
				)
			}
			s.totalSize = hint
		case hint != s.totalSize:
			return DecisionAbort, s.abort(
				&SizeError{
					TotalSize: s.totalSize,
					Received:  hint,
					Reason:    "size hint changed",
				},
			)
		}
	}
	received := s.bytesReceived + uint64(len(payload))
	if s.totalSize > 0 {
		if received > s.totalSize {
			return DecisionAbort, s.abort(
				&SizeError{
					TotalSize: s.totalSize,
					Received:  received,
					Reason:    "received more than the announced size",
				},
			)
		}
		if !more && received < s.totalSize {
			return DecisionAbort, s.abort(
				&SizeError{
					TotalSize: s.totalSize,
					Received:  received,
					Reason:    "last block before the announced size",
				},
			)
		}
	} else if received > s.maxImageSize {
		return DecisionAbort, s.abort(
			fmt.Errorf(
				"%w: received %d bytes, limit %d",
				ErrImageTooLarge,
				received,
				s.maxImageSize,
			),
		)
	}
	if err := s.sink.Write(payload); err != nil {
		return DecisionAbort, s.abort(
			fmt.Errorf("block %d: sink write: %w", index, err),
		)
	}
	s.bytesReceived = received
	s.expectedIndex++
	s.blocks++
	// Without a size hint the last block defines the size
	if s.totalSize == 0 && !more {
		s.totalSize = s.bytesReceived
	}
	if s.IsComplete() {
		// The sink owns its data from here on, even if Finalize fails
		s.finalized = true
		if err := s.sink.Finalize(); err != nil {
			return DecisionAbort, s.abort(
				fmt.Errorf("sink finalize: %w", err),
			)
		}
		if err := s.transition(EventComplete); err != nil {
			return DecisionAbort, s.abort(err)
		}
		return DecisionComplete, nil
	}
	if err := s.transition(EventBlock); err != nil {
		return DecisionAbort, s.abort(err)
	}
	return DecisionRequestNext, nil
}

// Abort ends the session on behalf of the caller. The sink is told to discard
// its data. The returned error wraps cause
func (s *Session) Abort(cause error) error {
	if StateMap.IsTerminal(s.state) {
		return fmt.Errorf("%w: abort in state %s", ErrSessionClosed, s.state)
	}
	return s.abort(cause)
}

func (s *Session) abort(cause error) error {
	if err := s.transition(EventAbort); err != nil {
		return errors.Join(cause, err)
	}
	s.err = cause
	if s.sink != nil && !s.finalized {
		if err := sink.Abort(s.sink, cause); err != nil {
			s.err = errors.Join(cause, fmt.Errorf("sink abort: %w", err))
		}
	}
	return s.err
}

func (s *Session) transition(event protocol.Event) error {
	next, err := StateMap.Transition(s.state, event)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}
