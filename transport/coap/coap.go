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
	"log/slog"
	"time"

	"github.com/plgd-dev/go-coap/v3/net/blockwise"
)

const (
	// DefaultAddress is the default report server
	DefaultAddress = "data.lab5e.com:5684"
	// DefaultPort is used for download endpoints that carry no port
	DefaultPort = 5684
	// DefaultBlockSize is the block size exponent of the first block request
	DefaultBlockSize = blockwise.SZX1024
	// DefaultTransferTimeout bounds a single exchange, in seconds
	DefaultTransferTimeout = 60
)

// Network selects the security layer below CoAP
type Network string

const (
	NetworkUDP  Network = "udp"
	NetworkDTLS Network = "dtls"
)

// Config contains configuration options for the CoAP transport
type Config struct {
	Address string
	Network Network
	// CertFile and KeyFile hold the PEM client certificate and key used for DTLS
	CertFile string
	KeyFile  string
	// CAFile holds the PEM certificates trusted for the server. When empty the
	// client certificate file is used, as the device certificates are issued
	// together with the CA chain
	CAFile          string
	TransferTimeout time.Duration
	BlockSize       blockwise.SZX
	Logger          *slog.Logger
}

// CoapOptionFunc is a function that modifies a Config
type CoapOptionFunc func(*Config)

// NewConfig creates a new Config with default values, applying any provided option functions
func NewConfig(options ...CoapOptionFunc) Config {
	c := Config{
		Address:         DefaultAddress,
		Network:         NetworkDTLS,
		TransferTimeout: DefaultTransferTimeout * time.Second,
		BlockSize:       DefaultBlockSize,
	}
	// Apply provided options functions
	for _, option := range options {
		option(&c)
	}
	return c
}

// WithAddress sets the host:port of the report server
func WithAddress(address string) CoapOptionFunc {
	return func(c *Config) {
		c.Address = address
	}
}

// WithNetwork selects plain UDP or DTLS
func WithNetwork(network Network) CoapOptionFunc {
	return func(c *Config) {
		c.Network = network
	}
}

// WithCertificate sets the PEM client certificate and key files used for DTLS
func WithCertificate(certFile string, keyFile string) CoapOptionFunc {
	return func(c *Config) {
		c.CertFile = certFile
		c.KeyFile = keyFile
	}
}

// WithCAFile sets the PEM file with the trusted server certificates
func WithCAFile(caFile string) CoapOptionFunc {
	return func(c *Config) {
		c.CAFile = caFile
	}
}

// WithTransferTimeout bounds a single exchange
func WithTransferTimeout(timeout time.Duration) CoapOptionFunc {
	return func(c *Config) {
		c.TransferTimeout = timeout
	}
}

// WithBlockSize sets the block size exponent of the first block request
func WithBlockSize(szx blockwise.SZX) CoapOptionFunc {
	return func(c *Config) {
		c.BlockSize = szx
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) CoapOptionFunc {
	return func(c *Config) {
		c.Logger = logger
	}
}
