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
	"context"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/gofota/protocol"
	"github.com/blinklabs-io/gofota/sink"
	"github.com/blinklabs-io/gofota/transport"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Client downloads images block by block with one request outstanding at a time
type Client struct {
	*protocol.Protocol
	config  *Config
	limiter *rate.Limiter
}

// NewClient returns a new blockwise download client
func NewClient(protoOptions protocol.ProtocolOptions, cfg *Config) *Client {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	c := &Client{
		config: cfg,
	}
	if cfg.RequestRate > 0 && cfg.RequestRate != rate.Inf {
		c.limiter = rate.NewLimiter(cfg.RequestRate, max(cfg.RequestBurst, 1))
	}
	// Configure underlying Protocol
	protoConfig := protocol.ProtocolConfig{
		Name:      ProtocolName,
		Transport: protoOptions.Transport,
		Logger:    protoOptions.Logger,
	}
	c.Protocol = protocol.New(protoConfig)
	return c
}

// Download fetches the image at endpoint into s. The returned Session is
// always non-nil once the transport is known and describes how far the
// download got
func (c *Client) Download(
	ctx context.Context,
	endpoint transport.Endpoint,
	s sink.Sink,
) (*Session, error) {
	t, err := c.Transport()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ProtocolName, err)
	}
	sess := NewSession(s, c.config)
	if s == nil {
		metricDownloads.WithLabelValues(resultFailed).Inc()
		return sess, fmt.Errorf(
			"%s: sink: %w",
			ProtocolName,
			sess.Abort(protocol.ErrNoHandler),
		)
	}
	sessionId := uuid.New()
	logger := c.Logger().With("session_id", sessionId.String())
	logger.Debug(
		"calling Download(endpoint)",
		"endpoint", endpoint.String(),
	)
	ts, err := t.OpenSession(ctx, endpoint)
	if err != nil {
		metricDownloads.WithLabelValues(resultFailed).Inc()
		return sess, fmt.Errorf(
			"%s: open session %s: %w",
			ProtocolName,
			endpoint,
			sess.Abort(err),
		)
	}
	defer func() {
		if err := ts.Close(); err != nil {
			logger.Warn(
				"failed to close transport session",
				"error", err,
			)
		}
	}()
	if err := c.run(ctx, ts, sess, logger); err != nil {
		metricDownloads.WithLabelValues(resultFailed).Inc()
		logger.Error(
			"download failed",
			"endpoint", endpoint.String(),
			"blocks", sess.Blocks(),
			"bytes", sess.BytesReceived(),
			"error", err,
		)
		return sess, err
	}
	metricDownloads.WithLabelValues(resultComplete).Inc()
	logger.Info(
		"download complete",
		"endpoint", endpoint.String(),
		"blocks", sess.Blocks(),
		"bytes", sess.BytesReceived(),
	)
	return sess, nil
}

func (c *Client) run(
	ctx context.Context,
	ts transport.Session,
	sess *Session,
	logger *slog.Logger,
) error {
	for {
		index := sess.ExpectedIndex()
		if ctx.Err() != nil {
			return fmt.Errorf(
				"%s: block %d: %w",
				ProtocolName,
				index,
				sess.Abort(context.Cause(ctx)),
			)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf(
					"%s: block %d: %w",
					ProtocolName,
					index,
					sess.Abort(err),
				)
			}
		}
		if err := ts.RequestBlock(ctx, index); err != nil {
			return fmt.Errorf(
				"%s: request block %d: %w",
				ProtocolName,
				index,
				sess.Abort(err),
			)
		}
		blk, err := c.nextBlock(ctx, ts)
		if err != nil {
			return fmt.Errorf(
				"%s: receive block %d: %w",
				ProtocolName,
				index,
				sess.Abort(err),
			)
		}
		metricBlocksReceived.Inc()
		metricBytesReceived.Add(float64(len(blk.Payload)))
		decision, err := sess.AcceptBlock(
			blk.Index,
			blk.Payload,
			blk.SizeHint,
			blk.More,
		)
		if err != nil {
			return fmt.Errorf("%s: %w", ProtocolName, err)
		}
		logger.Debug(
			"accepted block",
			"block", blk.Index,
			"size", len(blk.Payload),
			"size_hint", blk.SizeHint,
			"more", blk.More,
			"decision", decision.String(),
		)
		if decision == DecisionComplete {
			return nil
		}
	}
}

func (c *Client) nextBlock(
	ctx context.Context,
	ts transport.Session,
) (transport.Block, error) {
	if c.config.BlockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.BlockTimeout)
		defer cancel()
	}
	return ts.NextBlock(ctx)
}
