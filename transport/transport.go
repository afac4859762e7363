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

// Package transport defines the message transport consumed by the FOTA
// protocols.
//
// The transport owns everything below the TLV layer: session establishment
// and security, retransmission, address resolution and block-selector
// metadata. Implementations live in the sub-packages.
package transport

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ExchangeId correlates a sent message with its response
type ExchangeId uuid.UUID

// NewExchangeId returns a random exchange identifier
func NewExchangeId() ExchangeId {
	return ExchangeId(uuid.New())
}

func (e ExchangeId) String() string {
	return uuid.UUID(e).String()
}

// Request is a single non-blockwise message sent to the report server
type Request struct {
	// Path is the resource path on the server, for example "u"
	Path    string
	Payload []byte
}

// Endpoint addresses a firmware image on a download server. An empty Host
// means the server the transport is already connected to
type Endpoint struct {
	Host string
	Port uint32
	Path string
}

func (e Endpoint) String() string {
	host := e.Host
	if e.Port != 0 {
		host = host + ":" + strconv.FormatUint(uint64(e.Port), 10)
	}
	return fmt.Sprintf("%s/%s", host, e.Path)
}

// Block is one delivered block of a blockwise transfer
type Block struct {
	// Index is the block number reported by the server
	Index uint32
	// Payload is the block body
	Payload []byte
	// SizeHint is the total transfer size announced by the server, 0 if absent
	SizeHint uint32
	// More is the server's continuation flag
	More bool
}

// Transport is the message transport used by the FOTA client. Only one
// exchange is outstanding at a time
type Transport interface {
	// Send dispatches a request and returns the identifier of its exchange
	Send(ctx context.Context, req Request) (ExchangeId, error)
	// Response waits for the complete response payload of an exchange
	Response(ctx context.Context, id ExchangeId) ([]byte, error)
	// OpenSession prepares a blockwise download from the given endpoint
	OpenSession(ctx context.Context, endpoint Endpoint) (Session, error)
	// Fatal delivers unrecoverable session loss events, such as the secure
	// channel closing. Receiving from it must never be required for progress
	Fatal() <-chan error
	// Close releases the transport
	Close() error
}

// Session is a blockwise download in progress on a transport
type Session interface {
	// RequestBlock issues a request for the block with the given index. The
	// transport appends the block-selector metadata itself
	RequestBlock(ctx context.Context, index uint32) error
	// NextBlock waits for the next delivered block
	NextBlock(ctx context.Context) (Block, error)
	// Close releases the session
	Close() error
}
