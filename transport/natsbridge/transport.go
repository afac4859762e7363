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
	"fmt"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/gofota/transport"
	"github.com/nats-io/nats.go"
)

type exchangeResult struct {
	payload []byte
	err     error
}

// Transport is a transport.Transport over a NATS connection
type Transport struct {
	config    Config
	logger    *slog.Logger
	conn      *nats.Conn
	mutex     sync.Mutex
	pending   map[transport.ExchangeId]chan exchangeResult
	fatalChan chan error
	closing   bool
	onceClose sync.Once
}

// New connects to the NATS server described by cfg
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
	t.logger = t.logger.With("component", "transport", "transport", "nats")
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				t.logger.Warn("disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			t.logger.Info("reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			t.connectionClosed()
		}),
	}
	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, transport.NewError("connect "+cfg.URL, err)
	}
	t.mutex.Lock()
	t.conn = conn
	t.mutex.Unlock()
	t.logger.Debug("connected", "url", conn.ConnectedUrl())
	return t, nil
}

func (t *Transport) connectionClosed() {
	t.mutex.Lock()
	closing := t.closing
	t.mutex.Unlock()
	if closing {
		return
	}
	t.logger.Error("connection closed", "url", t.config.URL)
	select {
	case t.fatalChan <- fmt.Errorf("%w: connection to %s closed", transport.ErrSessionLost, t.config.URL):
	default:
	}
}

// Send publishes the payload as a request on the subject for the given path.
// The exchange runs in the background until Response collects it or ctx ends
func (t *Transport) Send(
	ctx context.Context,
	req transport.Request,
) (transport.ExchangeId, error) {
	subj, err := subject(t.config.SubjectPrefix, req.Path)
	if err != nil {
		return transport.ExchangeId{}, transport.NewError("send", err)
	}
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
		op := "request " + subj
		msg, err := conn.RequestWithContext(ctx, subj, req.Payload)
		if err != nil {
			resultChan <- exchangeResult{err: transport.NewError(op, err)}
			return
		}
		if err := checkReply(op, msg); err != nil {
			resultChan <- exchangeResult{err: err}
			return
		}
		resultChan <- exchangeResult{payload: msg.Data}
	}()
	return id, nil
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

// OpenSession returns a block session for endpoint. The NATS subject space
// has no hosts, so only the endpoint path selects the image
func (t *Transport) OpenSession(
	ctx context.Context,
	endpoint transport.Endpoint,
) (transport.Session, error) {
	subj, err := subject(t.config.SubjectPrefix, endpoint.Path)
	if err != nil {
		return nil, transport.NewError("open session", err)
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.closing {
		return nil, transport.ErrClosed
	}
	if endpoint.Host != "" {
		t.logger.Debug(
			"ignoring endpoint host",
			"endpoint", endpoint.String(),
			"subject", subj,
		)
	}
	return &Session{
		conn:    t.conn,
		subject: subj,
		logger:  t.logger.With("subject", subj),
	}, nil
}

func (t *Transport) Fatal() <-chan error {
	return t.fatalChan
}

func (t *Transport) Close() error {
	err := transport.ErrClosed
	t.onceClose.Do(func() {
		t.mutex.Lock()
		t.closing = true
		conn := t.conn
		t.mutex.Unlock()
		conn.Close()
		err = nil
	})
	return err
}
