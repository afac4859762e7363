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
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	f := newCmdlineFlags("fota-client", cfg)
	require.NoError(t, f.Parse([]string{"1.0.0"}))
	assert.Equal(t, "1.0.0", f.version)
	assert.Equal(t, "Lab5e Demo Corp", cfg.Manufacturer)
	assert.Equal(t, "model 01", cfg.Model)
	assert.Equal(t, "0001", cfg.Serial)
	assert.Equal(t, "image.new", cfg.ImagePath)
	assert.Equal(t, "data.lab5e.com:5684", cfg.Coap.Address)
	assert.Equal(t, "u", cfg.Report.Path)
	assert.Equal(t, 30*time.Second, cfg.Report.Timeout)
}

func TestParseMissingVersion(t *testing.T) {
	f := newCmdlineFlags("fota-client", NewDefaultConfig())
	assert.Error(t, f.Parse([]string{}))
	f = newCmdlineFlags("fota-client", NewDefaultConfig())
	assert.Error(t, f.Parse([]string{"1.0.0", "extra"}))
}

func TestParseConfigFileAndFlags(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "fota.yaml")
	configData := `
transport: nats
serial: "0042"
timeout: 2m
report:
  path: report
blockwise:
  timeout: 5s
  requestRate: 20
nats:
  url: nats://nats.local:4222
`
	require.NoError(t, os.WriteFile(configFile, []byte(configData), 0o600))
	cfg := NewDefaultConfig()
	f := newCmdlineFlags("fota-client", cfg)
	require.NoError(
		t,
		f.Parse([]string{"-config", configFile, "-serial", "0099", "2.1.0"}),
	)
	assert.Equal(t, "2.1.0", f.version)
	assert.Equal(t, transportNats, cfg.Transport)
	// Flags given on the command line win over the file
	assert.Equal(t, "0099", cfg.Serial)
	// Values not in the file keep their defaults
	assert.Equal(t, "model 01", cfg.Model)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "report", cfg.Report.Path)
	assert.Equal(t, 5*time.Second, cfg.Blockwise.Timeout)
	assert.InDelta(t, 20.0, cfg.Blockwise.RequestRate, 0.001)
	assert.Equal(t, "nats://nats.local:4222", cfg.Nats.URL)
	assert.Equal(t, "fota", cfg.Nats.SubjectPrefix)
}

func TestParseInvalid(t *testing.T) {
	testDefs := [][]string{
		{"-transport", "carrier-pigeon", "1.0.0"},
		{"-network", "tcp", "1.0.0"},
		{"-image", "", "1.0.0"},
		{"-config", "/nonexistent/fota.yaml", "1.0.0"},
	}
	for _, args := range testDefs {
		f := newCmdlineFlags("fota-client", NewDefaultConfig())
		f.flagset.SetOutput(io.Discard)
		assert.Error(t, f.Parse(args), "args %v", args)
	}
}

func TestNewLogger(t *testing.T) {
	assert.True(t, newLogger(true).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, newLogger(false).Enabled(context.Background(), slog.LevelDebug))
}
