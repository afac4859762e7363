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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/gofota/transport"
)

// ErrConversationMismatch is returned when the client does something the
// conversation did not expect
var ErrConversationMismatch = errors.New("conversation mismatch")

// Transport mocks a transport.Transport by walking a scripted conversation
type Transport struct {
	sync.Mutex
	conversation []ConversationEntry
	pos          int
	pending      map[transport.ExchangeId]ConversationEntry
	fatalChan    chan error
	mismatch     error
	closed       bool
	sessions     int
	closedCount  int
}

// NewTransport returns a new Transport with the provided conversation entries
func NewTransport(conversation []ConversationEntry) *Transport {
	return &Transport{
		conversation: conversation,
		pending:      make(map[transport.ExchangeId]ConversationEntry),
		fatalChan:    make(chan error, 1),
	}
}

// next pops the next entry, which must be of the given type
func (t *Transport) next(entryType EntryType) (ConversationEntry, error) {
	if t.mismatch != nil {
		return ConversationEntry{}, t.mismatch
	}
	if t.pos >= len(t.conversation) {
		t.mismatch = fmt.Errorf(
			"%w: unexpected %s after end of conversation",
			ErrConversationMismatch,
			entryType,
		)
		return ConversationEntry{}, t.mismatch
	}
	entry := t.conversation[t.pos]
	if entry.Type != entryType {
		t.mismatch = fmt.Errorf(
			"%w: entry %d: expected %s, got %s",
			ErrConversationMismatch,
			t.pos,
			entry.Type,
			entryType,
		)
		return ConversationEntry{}, t.mismatch
	}
	t.pos++
	return entry, nil
}

func (t *Transport) fail(format string, args ...any) error {
	t.mismatch = fmt.Errorf(
		"%w: entry %d: "+format,
		append([]any{ErrConversationMismatch, t.pos - 1}, args...)...,
	)
	return t.mismatch
}

func (t *Transport) Send(
	ctx context.Context,
	req transport.Request,
) (transport.ExchangeId, error) {
	t.Lock()
	defer t.Unlock()
	entry, err := t.next(EntryTypeReport)
	if err != nil {
		return transport.ExchangeId{}, err
	}
	if entry.InputPath != "" && entry.InputPath != req.Path {
		return transport.ExchangeId{}, t.fail(
			"expected path %q, got %q",
			entry.InputPath,
			req.Path,
		)
	}
	if entry.InputPayload != nil &&
		!bytes.Equal(entry.InputPayload, req.Payload) {
		return transport.ExchangeId{}, t.fail(
			"expected payload %x, got %x",
			entry.InputPayload,
			req.Payload,
		)
	}
	if entry.SendError != nil {
		return transport.ExchangeId{}, entry.SendError
	}
	id := transport.NewExchangeId()
	t.pending[id] = entry
	return id, nil
}

func (t *Transport) Response(
	ctx context.Context,
	id transport.ExchangeId,
) ([]byte, error) {
	t.Lock()
	entry, ok := t.pending[id]
	delete(t.pending, id)
	t.Unlock()
	if !ok {
		return nil, transport.ErrUnknownExchange
	}
	if entry.ResponseHang {
		<-ctx.Done()
		return nil, transport.NewError("response", context.Cause(ctx))
	}
	if entry.ResponseError != nil {
		return nil, entry.ResponseError
	}
	return entry.OutputPayload, nil
}

func (t *Transport) OpenSession(
	ctx context.Context,
	endpoint transport.Endpoint,
) (transport.Session, error) {
	t.Lock()
	defer t.Unlock()
	entry, err := t.next(EntryTypeOpenSession)
	if err != nil {
		return nil, err
	}
	if entry.InputEndpoint != endpoint {
		return nil, t.fail(
			"expected endpoint %s, got %s",
			entry.InputEndpoint,
			endpoint,
		)
	}
	if entry.OpenError != nil {
		return nil, entry.OpenError
	}
	t.sessions++
	return &Session{transport: t}, nil
}

func (t *Transport) Fatal() <-chan error {
	return t.fatalChan
}

func (t *Transport) Close() error {
	t.Lock()
	defer t.Unlock()
	if t.closed {
		return transport.ErrClosed
	}
	t.closed = true
	return nil
}

// Verify returns an error if the client strayed from the conversation or did
// not finish it
func (t *Transport) Verify() error {
	t.Lock()
	defer t.Unlock()
	if t.mismatch != nil {
		return t.mismatch
	}
	if t.pos != len(t.conversation) {
		return fmt.Errorf(
			"%w: conversation stopped at entry %d of %d (%s)",
			ErrConversationMismatch,
			t.pos,
			len(t.conversation),
			t.conversation[t.pos].Type,
		)
	}
	if t.closedCount != t.sessions {
		return fmt.Errorf(
			"%w: %d sessions opened, %d closed",
			ErrConversationMismatch,
			t.sessions,
			t.closedCount,
		)
	}
	return nil
}

// Session is the block session returned by Transport.OpenSession
type Session struct {
	transport *Transport
	closed    bool
}

func (s *Session) RequestBlock(ctx context.Context, index uint32) error {
	t := s.transport
	t.Lock()
	defer t.Unlock()
	if s.closed {
		return transport.ErrClosed
	}
	entry, err := t.next(EntryTypeBlockRequest)
	if err != nil {
		return err
	}
	if entry.InputIndex != index {
		return t.fail(
			"expected block request %d, got %d",
			entry.InputIndex,
			index,
		)
	}
	return entry.RequestError
}

// NextBlock returns the next scripted block. A Fatal entry is published on the
// transport's fatal channel and the call then waits for the context to end
func (s *Session) NextBlock(ctx context.Context) (transport.Block, error) {
	t := s.transport
	t.Lock()
	if s.closed {
		t.Unlock()
		return transport.Block{}, transport.ErrClosed
	}
	if t.pos < len(t.conversation) &&
		t.conversation[t.pos].Type == EntryTypeFatal {
		entry := t.conversation[t.pos]
		t.pos++
		t.Unlock()
		t.fatalChan <- entry.FatalError
		<-ctx.Done()
		return transport.Block{}, transport.NewError("block", context.Cause(ctx))
	}
	entry, err := t.next(EntryTypeBlock)
	t.Unlock()
	if err != nil {
		return transport.Block{}, err
	}
	if entry.BlockError != nil {
		return transport.Block{}, entry.BlockError
	}
	return entry.OutputBlock, nil
}

func (s *Session) Close() error {
	t := s.transport
	t.Lock()
	defer t.Unlock()
	if s.closed {
		return transport.ErrClosed
	}
	s.closed = true
	t.closedCount++
	return nil
}
