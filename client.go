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

// Package fota implements a firmware-over-the-air client.
//
// A Client reports the device identity to the update server and, when the
// server announces a newer image, downloads it block by block into a sink.
// The transport below the TLV layer (CoAP over DTLS, NATS, ...) is provided
// through the transport package.
package fota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/gofota/manifest"
	"github.com/blinklabs-io/gofota/protocol"
	"github.com/blinklabs-io/gofota/protocol/blockwise"
	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/blinklabs-io/gofota/sink"
	"github.com/blinklabs-io/gofota/transport"
)

// Client drives the report exchange and the image download over a transport.
// Only one Run or CheckForUpdate is active at a time
type Client struct {
	mutex           sync.Mutex
	transport       transport.Transport
	logger          *slog.Logger
	reportConfig    *report.Config
	blockwiseConfig *blockwise.Config
	manifestPath    string
	onceClose       sync.Once
	// Protocols
	report    *report.Client
	blockwise *blockwise.Client
}

// NewClient returns a new Client with the specified options. A transport is required
func NewClient(options ...ClientOptionFunc) (*Client, error) {
	c := &Client{}
	// Apply provided options functions
	for _, option := range options {
		option(c)
	}
	if c.transport == nil {
		return nil, fmt.Errorf("transport: %w", protocol.ErrNoHandler)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	protoOptions := protocol.ProtocolOptions{
		Transport: c.transport,
		Logger:    c.logger,
	}
	c.report = report.NewClient(protoOptions, c.reportConfig)
	c.blockwise = blockwise.NewClient(protoOptions, c.blockwiseConfig)
	return c, nil
}

// Report returns the report protocol client
func (c *Client) Report() *report.Client {
	return c.report
}

// Blockwise returns the blockwise download client
func (c *Client) Blockwise() *blockwise.Client {
	return c.blockwise
}

// Close releases the transport
func (c *Client) Close() error {
	var err error
	c.onceClose.Do(func() {
		err = c.transport.Close()
	})
	return err
}

// CheckForUpdate sends the report and returns the server's response without
// downloading anything
func (c *Client) CheckForUpdate(
	ctx context.Context,
	r report.Report,
) (*report.Response, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ctx, stop := c.watchFatal(ctx)
	defer stop()
	return c.report.Send(ctx, r)
}

// Run sends the report and, if the server has a newer image, downloads it
// into s. Failures of the report exchange return a nil Result. Download
// failures return a Result with OutcomeDownloadFailed together with the error
func (c *Client) Run(
	ctx context.Context,
	r report.Report,
	s sink.Sink,
) (*Result, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	ctx, stop := c.watchFatal(ctx)
	defer stop()
	resp, err := c.report.Send(ctx, r)
	if err != nil {
		c.logger.Error(
			"report exchange failed",
			"component", "fota",
			"error", err,
		)
		return nil, err
	}
	result := &Result{
		Response: resp,
	}
	if !resp.HasNewVersion {
		result.Outcome = OutcomeNoUpgrade
		c.logger.Info(
			"no upgrade available",
			"component", "fota",
			"version", r.Version,
		)
		return result, nil
	}
	endpoint := transport.Endpoint{
		Host: resp.Hostname,
		Port: resp.Port,
		Path: resp.Path,
	}
	c.logger.Info(
		"upgrade available",
		"component", "fota",
		"version", r.Version,
		"endpoint", endpoint.String(),
	)
	if s == nil {
		result.Outcome = OutcomeDownloadFailed
		result.Err = fmt.Errorf("sink: %w", protocol.ErrNoHandler)
		return result, result.Err
	}
	hashSink := sink.NewHashingSink(s)
	sess, err := c.blockwise.Download(ctx, endpoint, hashSink)
	if sess != nil {
		result.BytesReceived = sess.BytesReceived()
		result.TotalSize = sess.TotalSize()
		result.Blocks = sess.Blocks()
	}
	if err != nil {
		result.Outcome = OutcomeDownloadFailed
		result.Err = err
		return result, err
	}
	result.Outcome = OutcomeDownloadComplete
	result.Digest = hashSink.Sum()
	if c.manifestPath != "" {
		m, err := c.writeManifest(r, endpoint, result)
		if err != nil {
			// The image itself is complete
			c.logger.Warn(
				"failed to write manifest",
				"component", "fota",
				"path", c.manifestPath,
				"error", err,
			)
		}
		result.Manifest = m
	}
	return result, nil
}

func (c *Client) writeManifest(
	r report.Report,
	endpoint transport.Endpoint,
	result *Result,
) (*manifest.Manifest, error) {
	m, err := manifest.New(r)
	if err != nil {
		return nil, err
	}
	m.Source = endpoint.String()
	m.Size = result.BytesReceived
	m.Blocks = uint64(result.Blocks) // #nosec G115
	m.Digest = result.Digest
	m.StagedAt = time.Now()
	if err := m.WriteFile(c.manifestPath); err != nil {
		return nil, err
	}
	return m, nil
}

// watchFatal returns a context that is cancelled when the transport reports
// a fatal event. The returned stop func must be called once the operation
// is done and waits for the watcher to exit
func (c *Client) watchFatal(
	ctx context.Context,
) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case err, ok := <-c.transport.Fatal():
			if !ok {
				return
			}
			if err == nil {
				err = transport.ErrSessionLost
			} else if !errors.Is(err, transport.ErrSessionLost) {
				err = fmt.Errorf("%w: %w", transport.ErrSessionLost, err)
			}
			c.logger.Error(
				"fatal transport event",
				"component", "fota",
				"error", err,
			)
			cancel(err)
		}
	}()
	return ctx, func() {
		cancel(nil)
		wg.Wait()
	}
}
