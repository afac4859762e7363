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
	"log/slog"
	"time"
)

const (
	// DefaultURL is the NATS server used when none is configured
	DefaultURL = "nats://127.0.0.1:4222"
	// DefaultSubjectPrefix is prepended to every request subject
	DefaultSubjectPrefix = "fota"
	// DefaultName is the client connection name
	DefaultName = "fota-client"
	// DefaultReconnectWait is the pause between reconnect attempts, in seconds
	DefaultReconnectWait = 2
	// DefaultMaxReconnects is the number of reconnect attempts before the
	// connection is closed for good
	DefaultMaxReconnects = 10
)

// Config contains configuration options for the NATS transport
type Config struct {
	URL           string
	SubjectPrefix string
	Name          string
	CredsFile     string
	ReconnectWait time.Duration
	MaxReconnects int
	Logger        *slog.Logger
}

// NatsOptionFunc is a function that modifies a Config
type NatsOptionFunc func(*Config)

// NewConfig creates a new Config with default values, applying any provided option functions
func NewConfig(options ...NatsOptionFunc) Config {
	c := Config{
		URL:           DefaultURL,
		SubjectPrefix: DefaultSubjectPrefix,
		Name:          DefaultName,
		ReconnectWait: DefaultReconnectWait * time.Second,
		MaxReconnects: DefaultMaxReconnects,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithURL sets the NATS server URL
func WithURL(url string) NatsOptionFunc {
	return func(c *Config) {
		c.URL = url
	}
}

// WithSubjectPrefix sets the prefix of every request subject
func WithSubjectPrefix(prefix string) NatsOptionFunc {
	return func(c *Config) {
		c.SubjectPrefix = prefix
	}
}

// WithName sets the client connection name
func WithName(name string) NatsOptionFunc {
	return func(c *Config) {
		c.Name = name
	}
}

// WithCredentials sets the user credentials file
func WithCredentials(credsFile string) NatsOptionFunc {
	return func(c *Config) {
		c.CredsFile = credsFile
	}
}

// WithReconnect sets the reconnect policy. A negative maxReconnects retries forever
func WithReconnect(wait time.Duration, maxReconnects int) NatsOptionFunc {
	return func(c *Config) {
		c.ReconnectWait = wait
		c.MaxReconnects = maxReconnects
	}
}

// WithLogger sets the transport logger
func WithLogger(logger *slog.Logger) NatsOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}
