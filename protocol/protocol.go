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

// Package protocol provides the pieces shared by the FOTA protocols: state
// machines, protocol violation errors and the options every protocol client
// is built from.
package protocol

import (
	"log/slog"

	"github.com/blinklabs-io/gofota/transport"
)

// ProtocolOptions holds the collaborators handed to each protocol client
type ProtocolOptions struct {
	Transport transport.Transport
	Logger    *slog.Logger
}

// ProtocolConfig describes a protocol instance
type ProtocolConfig struct {
	Name      string
	Transport transport.Transport
	Logger    *slog.Logger
}

// Protocol is embedded by the protocol clients
type Protocol struct {
	config ProtocolConfig
	logger *slog.Logger
}

// New returns a Protocol for the given config
func New(config ProtocolConfig) *Protocol {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Protocol{
		config: config,
		logger: logger.With(
			"component", "fota",
			"protocol", config.Name,
			"role", "client",
		),
	}
}

// Name returns the protocol name
func (p *Protocol) Name() string {
	return p.config.Name
}

// Logger returns the protocol logger
func (p *Protocol) Logger() *slog.Logger {
	return p.logger
}

// Transport returns the configured transport, or ErrNoHandler if there is none
func (p *Protocol) Transport() (transport.Transport, error) {
	if p.config.Transport == nil {
		return nil, ErrNoHandler
	}
	return p.config.Transport, nil
}
