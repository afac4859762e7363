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

package fota

import (
	"log/slog"

	"github.com/blinklabs-io/gofota/protocol/blockwise"
	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/blinklabs-io/gofota/transport"
)

// ClientOptionFunc is a type that represents functions that modify the Client config
type ClientOptionFunc func(*Client)

// WithTransport specifies the transport used for all exchanges
func WithTransport(t transport.Transport) ClientOptionFunc {
	return func(c *Client) {
		c.transport = t
	}
}

// WithLogger specifies the logger. slog.Default() is used if none is provided
func WithLogger(logger *slog.Logger) ClientOptionFunc {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithReportConfig specifies a config for the report protocol
func WithReportConfig(cfg report.Config) ClientOptionFunc {
	return func(c *Client) {
		c.reportConfig = &cfg
	}
}

// WithBlockwiseConfig specifies a config for blockwise downloads
func WithBlockwiseConfig(cfg blockwise.Config) ClientOptionFunc {
	return func(c *Client) {
		c.blockwiseConfig = &cfg
	}
}

// WithManifestPath specifies where a manifest is written after a completed
// download. No manifest is written by default
func WithManifestPath(path string) ClientOptionFunc {
	return func(c *Client) {
		c.manifestPath = path
	}
}
