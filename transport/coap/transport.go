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
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/blinklabs-io/gofota/transport"
	piondtls "github.com/pion/dtls/v3"
	"github.com/plgd-dev/go-coap/v3/dtls"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	"github.com/plgd-dev/go-coap/v3/options"
	"github.com/plgd-dev/go-coap/v3/udp"
	"github.com/plgd-dev/go-coap/v3/udp/client"
)

type exchangeResult struct {
	payload []byte
	err     error
}

// Transport is a transport.Transport over a CoAP connection
type Transport struct {
	config     Config
	logger     *slog.Logger
	dtlsConfig *piondtls.Config
	conn       *client.Conn
	mutex      sync.Mutex
	pending    map[transport.ExchangeId]chan exchangeResult
	fatalChan  chan error
	closing    bool
	onceClose  sync.Once
}

// New connects to the report server described by cfg
func New(cfg Config) (*Transport, error) {
	t := &Transport{
		config:    cfg,
		logger:    cfg.Logger,
		pending:   make(map[transport.ExchangeId]chan exchangeResult),
		fatalChan: make(chan error, 1),
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With("component", "transport", "transport", "coap")
	if cfg.Network == NetworkDTLS {
		dtlsConfig, err := loadDTLSConfig(cfg)
		if err != nil {
			return nil, transport.NewError("dial", err)
		}
		t.dtlsConfig = dtlsConfig
	}
	conn, err := t.dial(cfg.Address)
	if err != nil {
		return nil, err
	}
	conn.AddOnClose(func() {
		t.connectionClosed(cfg.Address)
	})
	t.conn = conn
	return t, nil
}

// connectionClosed reports the loss of the connection to address as a fatal
// event, unless the transport is being closed
func (t *Transport) connectionClosed(address string) {
	t.mutex.Lock()
	closing := t.closing
	t.mutex.Unlock()
	if closing {
		return
	}
	t.logger.Error("connection closed", "address", address)
	select {
	case t.fatalChan <- fmt.Errorf("%w: connection to %s closed", transport.ErrSessionLost, address):
	default:
	}
}

func loadDTLSConfig(cfg Config) (*piondtls.Config, error) {
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, errors.New("dtls requires a certificate and a key")
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load certificate: %w", err)
	}
	caFile := cfg.CAFile
	if caFile == "" {
		caFile = cfg.CertFile
	}
	caData, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read CA certificates: %w", err)
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caData) {
		return nil, fmt.Errorf("no certificates found in %s", caFile)
	}
	return &piondtls.Config{
		Certificates:         []tls.Certificate{cert},
		RootCAs:              roots,
		ExtendedMasterSecret: piondtls.RequireExtendedMasterSecret,
	}, nil
}

func (t *Transport) dial(address string) (*client.Conn, error) {
	blockOpt := options.WithBlockwise(false, t.config.BlockSize, t.config.TransferTimeout)
	var conn *client.Conn
	var err error
	switch t.config.Network {
	case NetworkDTLS:
		conn, err = dtls.Dial(address, t.dtlsConfig, blockOpt)
	case NetworkUDP, "":
		conn, err = udp.Dial(address, blockOpt)
	default:
		err = fmt.Errorf("unknown network %q", t.config.Network)
	}
	if err != nil {
		return nil, transport.NewError("dial "+address, err)
	}
	t.logger.Debug(
		"connected",
		"address", address,
		"network", string(t.config.Network),
	)
	return conn, nil
}

// Send posts the payload to the given path. The exchange runs in the
// background until Response collects it or ctx ends
func (t *Transport) Send(
	ctx context.Context,
	req transport.Request,
) (transport.ExchangeId, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closing {
		return transport.ExchangeId{}, transport.ErrClosed
	}
	id := transport.NewExchangeId()
	resultChan := make(chan exchangeResult, 1)
	t.pending[id] = resultChan
	conn := t.conn
	go func() {
		resp, err := conn.Post(
			ctx,
			req.Path,
			message.AppOctets,
			bytes.NewReader(req.Payload),
		)
		resultChan <- readResponse(conn, "post "+req.Path, resp, err)
	}()
	return id, nil
}

func readResponse(
	conn *client.Conn,
	op string,
	resp *pool.Message,
	err error,
) exchangeResult {
	if err != nil {
		return exchangeResult{err: transport.NewError(op, err)}
	}
	defer conn.ReleaseMessage(resp)
	if err := checkCode(op, resp.Code()); err != nil {
		return exchangeResult{err: err}
	}
	payload, err := resp.ReadBody()
	if err != nil {
		return exchangeResult{err: transport.NewError(op, err)}
	}
	return exchangeResult{payload: payload}
}

func (t *Transport) Response(
	ctx context.Context,
	id transport.ExchangeId,
) ([]byte, error) {
	t.mutex.Lock()
	resultChan, ok := t.pending[id]
	delete(t.pending, id)
	t.mutex.Unlock()
	if !ok {
		return nil, transport.ErrUnknownExchange
	}
	select {
	case <-ctx.Done():
		return nil, transport.NewError("response", context.Cause(ctx))
	case result := <-resultChan:
		return result.payload, result.err
	}
}

// OpenSession returns a block session for endpoint. Endpoints on another host
// get their own connection, which is closed with the session
func (t *Transport) OpenSession(
	ctx context.Context,
	endpoint transport.Endpoint,
) (transport.Session, error) {
	t.mutex.Lock()
	if t.closing {
		t.mutex.Unlock()
		return nil, transport.ErrClosed
	}
	conn := t.conn
	t.mutex.Unlock()
	s := &Session{
		conn:   conn,
		path:   endpoint.Path,
		szx:    t.config.BlockSize,
		logger: t.logger.With("endpoint", endpoint.String()),
	}
	if address := endpointAddress(endpoint); address != "" &&
		address != t.config.Address {
		conn, err := t.dial(address)
		if err != nil {
			return nil, err
		}
		s.conn = conn
		s.owned = true
		conn.AddOnClose(func() {
			if s.isClosed() {
				return
			}
			t.connectionClosed(address)
		})
	}
	return s, nil
}

// endpointAddress returns host:port for endpoint, or "" for the current server
func endpointAddress(endpoint transport.Endpoint) string {
	if endpoint.Host == "" {
		return ""
	}
	port := endpoint.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(
		endpoint.Host,
		strconv.FormatUint(uint64(port), 10),
	)
}

func (t *Transport) Fatal() <-chan error {
	return t.fatalChan
}

func (t *Transport) Close() error {
	err := transport.ErrClosed
	t.onceClose.Do(func() {
		t.mutex.Lock()
		t.closing = true
		t.mutex.Unlock()
		err = t.conn.Close()
	})
	return err
}
