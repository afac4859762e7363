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
	"time"

	"github.com/blinklabs-io/gofota/protocol"
	"golang.org/x/time/rate"
)

const (
	// ProtocolName is the name of the blockwise download protocol
	ProtocolName = "blockwise"
	// DefaultBlockTimeout is the default time to wait for a single block, in seconds
	DefaultBlockTimeout = 60
	// DefaultMaxImageSize is the largest image accepted by default
	DefaultMaxImageSize = 16 * 1024 * 1024
)

var (
	StateIdle       = protocol.NewState(1, "Idle")
	StateInProgress = protocol.NewState(2, "InProgress")
	StateComplete   = protocol.NewState(3, "Complete")
	StateAborted    = protocol.NewState(4, "Aborted")
)

const (
	EventStart protocol.Event = iota + 1
	EventBlock
	EventComplete
	EventAbort
)

// StateMap defines the valid state transitions of a download session
var StateMap = protocol.StateMap{
	StateIdle: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				Event:    EventStart,
				NewState: StateInProgress,
			},
			{
				Event:    EventAbort,
				NewState: StateAborted,
			},
		},
	},
	StateInProgress: protocol.StateMapEntry{
		Transitions: []protocol.StateTransition{
			{
				Event:    EventBlock,
				NewState: StateInProgress,
			},
			{
				Event:    EventComplete,
				NewState: StateComplete,
			},
			{
				Event:    EventAbort,
				NewState: StateAborted,
			},
		},
	},
	StateComplete: protocol.StateMapEntry{
		Terminal: true,
	},
	StateAborted: protocol.StateMapEntry{
		Terminal: true,
	},
}

// Config contains configuration options for blockwise downloads
type Config struct {
	// BlockTimeout bounds the wait for each block
	BlockTimeout time.Duration
	// MaxImageSize is the largest total size accepted, announced or received
	MaxImageSize uint64
	// RequestRate paces block requests. Zero disables pacing
	RequestRate  rate.Limit
	RequestBurst int
}

// BlockwiseOptionFunc is a function that modifies a Config
type BlockwiseOptionFunc func(*Config)

// NewConfig creates a new Config with default values, applying any provided option functions
func NewConfig(options ...BlockwiseOptionFunc) Config {
	c := Config{
		BlockTimeout: DefaultBlockTimeout * time.Second,
		MaxImageSize: DefaultMaxImageSize,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithBlockTimeout sets the time to wait for each block
func WithBlockTimeout(timeout time.Duration) BlockwiseOptionFunc {
	return func(c *Config) {
		c.BlockTimeout = timeout
	}
}

// WithMaxImageSize sets the largest image that will be accepted
func WithMaxImageSize(size uint64) BlockwiseOptionFunc {
	return func(c *Config) {
		c.MaxImageSize = size
	}
}

// WithRequestRate limits block requests to limit per second with the given burst
func WithRequestRate(limit rate.Limit, burst int) BlockwiseOptionFunc {
	return func(c *Config) {
		c.RequestRate = limit
		c.RequestBurst = burst
	}
}
