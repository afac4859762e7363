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

package natsbridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gofota/transport"
	"github.com/nats-io/nats.go"
)

type blockResult struct {
	requested uint32
	block     transport.Block
	err       error
}

// Session requests blocks from a single subject, one at a time
type Session struct {
	conn      *nats.Conn
	subject   string
	mutex     sync.Mutex
	logger    *slog.Logger
	inflight  chan blockResult
	onceClose sync.Once
	closed    bool
}

// RequestBlock sends the request for block index
func (s *Session) RequestBlock(ctx context.Context, index uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return transport.ErrClosed
	}
	if s.inflight != nil {
		return transport.NewError(
			"request block",
			errors.New("a block request is already outstanding"),
		)
	}
	resultChan := make(chan blockResult, 1)
	s.inflight = resultChan
	conn := s.conn
	op := "request " + s.subject
	msg := newBlockRequest(s.subject, index)
	go func() {
		result := blockResult{requested: index}
		reply, err := conn.RequestMsgWithContext(ctx, msg)
		if err != nil {
			result.err = transport.NewError(op, err)
			resultChan <- result
			return
		}
		if err := checkReply(op, reply); err != nil {
			result.err = err
			resultChan <- result
			return
		}
		block, err := parseBlockReply(index, reply)
		if err != nil {
			result.err = transport.NewError(op, err)
			resultChan <- result
			return
		}
		result.block = block
		resultChan <- result
	}()
	return nil
}

// NextBlock waits for the reply to the outstanding block request
func (s *Session) NextBlock(ctx context.Context) (transport.Block, error) {
	s.mutex.Lock()
	resultChan := s.inflight
	s.mutex.Unlock()
	if resultChan == nil {
		return transport.Block{}, transport.NewError(
			"next block",
			errors.New("no block request outstanding"),
		)
	}
	select {
	case <-ctx.Done():
		return transport.Block{}, transport.NewError(
			"next block",
			context.Cause(ctx),
		)
	case result := <-resultChan:
		s.mutex.Lock()
		s.inflight = nil
		s.mutex.Unlock()
		if result.err != nil {
			return transport.Block{}, result.err
		}
		s.logger.Debug(
			"received block",
			"requested", result.requested,
			"block", result.block.Index,
			"size", len(result.block.Payload),
			"more", result.block.More,
		)
		return result.block, nil
	}
}

// Close ends the session. The connection belongs to the transport
func (s *Session) Close() error {
	err := transport.ErrClosed
	s.onceClose.Do(func() {
		s.mutex.Lock()
		s.closed = true
		s.mutex.Unlock()
		err = nil
	})
	return err
}
