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

package coap

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gofota/transport"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/net/blockwise"
	"github.com/plgd-dev/go-coap/v3/udp/client"
)

type blockResult struct {
	requested uint32
	block     transport.Block
	err       error
}

// Session requests blocks with an explicit Block2 option, one at a time
type Session struct {
	conn      *client.Conn
	owned     bool
	path      string
	mutex     sync.Mutex
	szx       blockwise.SZX
	logger    *slog.Logger
	inflight  chan blockResult
	onceClose sync.Once
	closed    bool
}

// RequestBlock sends a GET for block index, keeping the block size the
// server used last
func (s *Session) RequestBlock(ctx context.Context, index uint32) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.inflight != nil {
		return transport.NewError(
			"request block",
			errors.New("a block request is already outstanding"),
		)
	}
	opt, err := encodeBlock2(s.szx, index)
	if err != nil {
		return transport.NewError("request block", err)
	}
	resultChan := make(chan blockResult, 1)
	s.inflight = resultChan
	conn := s.conn
	szx := s.szx
	path := s.path
	go func() {
		resp, err := conn.Get(ctx, path, opt)
		result := blockResult{requested: index}
		if err != nil {
			result.err = transport.NewError("get "+path, err)
			resultChan <- result
			return
		}
		defer conn.ReleaseMessage(resp)
		if err := checkCode("get "+path, resp.Code()); err != nil {
			result.err = err
			resultChan <- result
			return
		}
		block2, block2Err := resp.GetOptionUint32(message.Block2)
		size2, size2Err := resp.GetOptionUint32(message.Size2)
		opts, err := parseBlockOptions(
			index,
			szx,
			block2,
			block2Err == nil,
			size2,
			size2Err == nil,
		)
		if err != nil {
			result.err = transport.NewError("get "+path, err)
			resultChan <- result
			return
		}
		payload, err := resp.ReadBody()
		if err != nil {
			result.err = transport.NewError("get "+path, err)
			resultChan <- result
			return
		}
		s.mutex.Lock()
		s.szx = opts.szx
		s.mutex.Unlock()
		result.block = transport.Block{
			Index:    opts.index,
			Payload:  payload,
			SizeHint: opts.sizeHint,
			More:     opts.more,
		}
		resultChan <- result
	}()
	return nil
}

// NextBlock waits for the response to the outstanding block request
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

func (s *Session) isClosed() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.closed
}

func (s *Session) Close() error {
	err := transport.ErrClosed
	s.onceClose.Do(func() {
		s.mutex.Lock()
		s.closed = true
		s.mutex.Unlock()
		err = nil
		if s.owned {
			err = s.conn.Close()
		}
	})
	return err
}
