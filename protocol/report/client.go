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
	"context"
	"fmt"

	"github.com/blinklabs-io/gofota/protocol"
	"github.com/blinklabs-io/gofota/transport"
)

// Client sends a device report and waits for the server's response
type Client struct {
	*protocol.Protocol
	config *Config
}

// NewClient returns a new report client
func NewClient(protoOptions protocol.ProtocolOptions, cfg *Config) *Client {
	if cfg == nil {
		tmpCfg := NewConfig()
		cfg = &tmpCfg
	}
	c := &Client{
		config: cfg,
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

// Send encodes the report, sends it to the configured path and decodes the
// server's response. An empty response payload fails with
// protocol.ErrEmptyPayload
func (c *Client) Send(ctx context.Context, r Report) (*Response, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		metricReportExchanges.WithLabelValues(resultError).Inc()
		return nil, err
	}
	if resp.HasNewVersion {
		metricReportExchanges.WithLabelValues(resultUpgrade).Inc()
	} else {
		metricReportExchanges.WithLabelValues(resultNoUpgrade).Inc()
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, r Report) (*Response, error) {
	t, err := c.Transport()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ProtocolName, err)
	}
	payload, err := EncodeReport(r)
	if err != nil {
		return nil, fmt.Errorf("%s: encode report: %w", ProtocolName, err)
	}
	c.Logger().
		Debug("calling Send(report)",
			"version", r.Version,
			"manufacturer", r.Manufacturer,
			"serial", r.Serial,
			"model", r.Model,
			"path", c.config.Path,
		)
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	exchangeId, err := t.Send(
		ctx,
		transport.Request{
			Path:    c.config.Path,
			Payload: payload,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: send report: %w", ProtocolName, err)
	}
	metricReportSentBytes.Add(float64(len(payload)))
	data, err := t.Response(ctx, exchangeId)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: exchange %s: %w",
			ProtocolName,
			exchangeId,
			err,
		)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf(
			"%s: exchange %s: %w",
			ProtocolName,
			exchangeId,
			protocol.ErrEmptyPayload,
		)
	}
	resp, err := DecodeResponseLimits(data, c.config.Limits)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: exchange %s: decode response: %w",
			ProtocolName,
			exchangeId,
			err,
		)
	}
	c.Logger().
		Debug("received response",
			"exchange_id", exchangeId.String(),
			"has_new_version", resp.HasNewVersion,
			"hostname", resp.Hostname,
			"port", resp.Port,
			"path", resp.Path,
		)
	return resp, nil
}
