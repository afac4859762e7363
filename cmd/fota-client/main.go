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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/gofota"
	"github.com/blinklabs-io/gofota/protocol/blockwise"
	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/blinklabs-io/gofota/sink"
	"github.com/blinklabs-io/gofota/transport"
	"github.com/blinklabs-io/gofota/transport/coap"
	"github.com/blinklabs-io/gofota/transport/natsbridge"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

func main() {
	cfg := NewDefaultConfig()
	f := newCmdlineFlags(os.Args[0], cfg)
	if err := f.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("ERROR: %s\n", err)
		fmt.Printf("usage: %s [options] <version>\n", os.Args[0])
		f.flagset.PrintDefaults()
		os.Exit(1)
	}
	logger := newLogger(cfg.Debug)
	slog.SetDefault(logger)
	if err := run(cfg, f.version, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return slog.New(handler)
}

func newTransport(cfg *Config, logger *slog.Logger) (transport.Transport, error) {
	switch cfg.Transport {
	case transportNats:
		return natsbridge.New(natsbridge.NewConfig(
			natsbridge.WithURL(cfg.Nats.URL),
			natsbridge.WithSubjectPrefix(cfg.Nats.SubjectPrefix),
			natsbridge.WithName("fota-client-"+cfg.Serial),
			natsbridge.WithCredentials(cfg.Nats.CredsFile),
			natsbridge.WithLogger(logger),
		))
	default:
		return coap.New(coap.NewConfig(
			coap.WithAddress(cfg.Coap.Address),
			coap.WithNetwork(coap.Network(cfg.Coap.Network)),
			coap.WithCertificate(cfg.Coap.CertFile, cfg.Coap.KeyFile),
			coap.WithCAFile(cfg.Coap.CAFile),
			coap.WithLogger(logger),
		))
	}
}

func run(cfg *Config, version string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	t, err := newTransport(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	blockOpts := []blockwise.BlockwiseOptionFunc{
		blockwise.WithBlockTimeout(cfg.Blockwise.Timeout),
		blockwise.WithMaxImageSize(cfg.Blockwise.MaxImageSize),
	}
	if cfg.Blockwise.RequestRate > 0 {
		blockOpts = append(
			blockOpts,
			blockwise.WithRequestRate(rate.Limit(cfg.Blockwise.RequestRate), 1),
		)
	}
	c, err := fota.NewClient(
		fota.WithTransport(t),
		fota.WithLogger(logger),
		fota.WithReportConfig(report.NewConfig(
			report.WithPath(cfg.Report.Path),
			report.WithTimeout(cfg.Report.Timeout),
		)),
		fota.WithBlockwiseConfig(blockwise.NewConfig(blockOpts...)),
		fota.WithManifestPath(cfg.ManifestPath),
	)
	if err != nil {
		_ = t.Close()
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close transport", "error", err)
		}
	}()
	r := report.Report{
		Version:      version,
		Manufacturer: cfg.Manufacturer,
		Serial:       cfg.Serial,
		Model:        cfg.Model,
	}
	logger.Info(
		"reporting firmware version",
		"version", r.Version,
		"manufacturer", r.Manufacturer,
		"model", r.Model,
		"serial", r.Serial,
	)
	if cfg.CheckOnly {
		resp, err := c.CheckForUpdate(ctx, r)
		if err != nil {
			return fmt.Errorf("failed to check for update: %w", err)
		}
		if !resp.HasNewVersion {
			logger.Info("no new version available")
			return nil
		}
		logger.Info(
			"new version available",
			"host", resp.Hostname,
			"port", resp.Port,
			"path", resp.Path,
		)
		return nil
	}
	result, err := c.Run(ctx, r, sink.NewFileSink(cfg.ImagePath))
	if err != nil && result == nil {
		return fmt.Errorf("failed to report version: %w", err)
	}
	switch result.Outcome {
	case fota.OutcomeNoUpgrade:
		logger.Info("no new version available")
	case fota.OutcomeDownloadComplete:
		logger.Info(
			"image downloaded",
			"path", cfg.ImagePath,
			"size", result.BytesReceived,
			"blocks", result.Blocks,
			"digest", fmt.Sprintf("%x", result.Digest),
		)
	default:
		return fmt.Errorf("download failed: %w", result.Err)
	}
	return nil
}
