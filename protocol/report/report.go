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

package report

import (
	"time"
)

const (
	// ProtocolName is the name of the report protocol
	ProtocolName = "report"
	// DefaultPath is the resource the report is sent to
	DefaultPath = "u"
	// DefaultTimeout is the default time to wait for the server's response, in seconds
	DefaultTimeout = 30
)

// Config contains configuration options for the report protocol
type Config struct {
	Path    string
	Timeout time.Duration
	Limits  Limits
}

// ReportOptionFunc is a function that modifies a Config
type ReportOptionFunc func(*Config)

// NewConfig creates a new Config with default values, applying any provided option functions
func NewConfig(options ...ReportOptionFunc) Config {
	c := Config{
		Path:    DefaultPath,
		Timeout: DefaultTimeout * time.Second,
		Limits:  DefaultLimits,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithPath sets the resource path the report is sent to
func WithPath(path string) ReportOptionFunc {
	return func(c *Config) {
		c.Path = path
	}
}

// WithTimeout sets how long to wait for the server's response
func WithTimeout(timeout time.Duration) ReportOptionFunc {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLimits sets the string limits applied when decoding the response
func WithLimits(limits Limits) ReportOptionFunc {
	return func(c *Config) {
		c.Limits = limits
	}
}
