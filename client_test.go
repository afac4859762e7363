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

package fota_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/gofota"
	"github.com/blinklabs-io/gofota/internal/test/mocktransport"
	"github.com/blinklabs-io/gofota/manifest"
	"github.com/blinklabs-io/gofota/protocol"
	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/blinklabs-io/gofota/sink"
	"github.com/blinklabs-io/gofota/tlv"
	"github.com/blinklabs-io/gofota/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/blake2b"
)

var testReport = report.Report{
	Version:      "1.0.0",
	Manufacturer: "Lab5e Demo Corp",
	Serial:       "0001",
	Model:        "model 01",
}

var testEndpoint = transport.Endpoint{
	Host: "fw.local",
	Port: 5684,
	Path: "fw",
}

var testImage = bytes.Repeat([]byte{0x7f, 0x45, 0x4c, 0x46}, 100)

func conversationReportUpgrade(t *testing.T) mocktransport.ConversationEntry {
	payload, err := report.EncodeResponse(report.Response{
		HasNewVersion: true,
		Hostname:      testEndpoint.Host,
		Port:          testEndpoint.Port,
		Path:          testEndpoint.Path,
	})
	require.NoError(t, err)
	reportPayload, err := report.EncodeReport(testReport)
	require.NoError(t, err)
	return mocktransport.ConversationEntry{
		Type:          mocktransport.EntryTypeReport,
		InputPath:     report.DefaultPath,
		InputPayload:  reportPayload,
		OutputPayload: payload,
	}
}

var conversationOpenSession = mocktransport.ConversationEntry{
	Type:          mocktransport.EntryTypeOpenSession,
	InputEndpoint: testEndpoint,
}

type testInnerFunc func(*testing.T, *fota.Client)

func runTest(
	t *testing.T,
	conversation []mocktransport.ConversationEntry,
	innerFunc testInnerFunc,
	options ...fota.ClientOptionFunc,
) {
	defer goleak.VerifyNone(t)
	mock := mocktransport.NewTransport(conversation)
	client, err := fota.NewClient(
		append(
			[]fota.ClientOptionFunc{fota.WithTransport(mock)},
			options...,
		)...,
	)
	if err != nil {
		t.Fatalf("unexpected error when creating client: %s", err)
	}
	innerFunc(t, client)
	if err := mock.Verify(); err != nil {
		t.Fatalf("unexpected conversation error: %s", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("unexpected error when closing client: %s", err)
	}
}

func TestRunNoUpgrade(t *testing.T) {
	runTest(
		t,
		[]mocktransport.ConversationEntry{
			mocktransport.ConversationEntryReportNoUpgrade,
		},
		func(t *testing.T, c *fota.Client) {
			mem := sink.NewMemorySink()
			result, err := c.Run(context.Background(), testReport, mem)
			require.NoError(t, err)
			assert.Equal(t, fota.OutcomeNoUpgrade, result.Outcome)
			assert.False(t, result.Response.HasNewVersion)
			assert.Zero(t, mem.Writes())
		},
	)
}

func TestRunDownloadComplete(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "image.new.manifest")
	conversation := append(
		[]mocktransport.ConversationEntry{
			conversationReportUpgrade(t),
			conversationOpenSession,
		},
		mocktransport.NewBlockEntries(testImage, 64)...,
	)
	runTest(
		t,
		conversation,
		func(t *testing.T, c *fota.Client) {
			mem := sink.NewMemorySink()
			result, err := c.Run(context.Background(), testReport, mem)
			require.NoError(t, err)
			assert.Equal(t, fota.OutcomeDownloadComplete, result.Outcome)
			assert.NoError(t, result.Err)
			assert.Equal(t, uint64(len(testImage)), result.BytesReceived)
			assert.Equal(t, uint64(len(testImage)), result.TotalSize)
			assert.Equal(t, 7, result.Blocks)
			assert.Equal(t, testImage, mem.Bytes())
			assert.True(t, mem.Finalized())
			digest := blake2b.Sum256(testImage)
			assert.Equal(t, digest[:], result.Digest)

			require.NotNil(t, result.Manifest)
			m, err := manifest.ReadFile(manifestPath)
			require.NoError(t, err)
			assert.Equal(t, testReport.Version, m.Version)
			assert.Equal(t, testEndpoint.String(), m.Source)
			assert.Equal(t, uint64(len(testImage)), m.Size)
			assert.NoError(t, m.Verify(digest[:]))
		},
		fota.WithManifestPath(manifestPath),
	)
}

func TestRunReportFailures(t *testing.T) {
	testDefs := []struct {
		name      string
		entry     mocktransport.ConversationEntry
		expectErr error
	}{
		{
			name: "send failure",
			entry: mocktransport.ConversationEntry{
				Type:      mocktransport.EntryTypeReport,
				SendError: transport.NewError("send", errors.New("network unreachable")),
			},
			expectErr: transport.ErrTransportFailure,
		},
		{
			name: "malformed response",
			entry: mocktransport.ConversationEntry{
				Type:          mocktransport.EntryTypeReport,
				OutputPayload: []byte{0x04, 0x01, 0x01, 0x02},
			},
			expectErr: tlv.ErrDecodeMalformed,
		},
		{
			name: "unknown field",
			entry: mocktransport.ConversationEntry{
				Type:          mocktransport.EntryTypeReport,
				OutputPayload: []byte{0x07, 0x01, 0x01},
			},
			expectErr: tlv.ErrDecodeMalformed,
		},
		{
			name: "empty response",
			entry: mocktransport.ConversationEntry{
				Type:          mocktransport.EntryTypeReport,
				OutputPayload: []byte{},
			},
			expectErr: protocol.ErrEmptyPayload,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			runTest(
				t,
				[]mocktransport.ConversationEntry{testDef.entry},
				func(t *testing.T, c *fota.Client) {
					mem := sink.NewMemorySink()
					result, err := c.Run(context.Background(), testReport, mem)
					assert.ErrorIs(t, err, testDef.expectErr)
					assert.Nil(t, result)
					assert.Zero(t, mem.Writes())
				},
			)
		})
	}
}

func TestRunSequencingViolation(t *testing.T) {
	conversation := []mocktransport.ConversationEntry{
		conversationReportUpgrade(t),
		conversationOpenSession,
		{
			Type:       mocktransport.EntryTypeBlockRequest,
			InputIndex: 0,
		},
		{
			Type: mocktransport.EntryTypeBlock,
			OutputBlock: transport.Block{
				Index:    0,
				Payload:  testImage[:64],
				SizeHint: uint32(len(testImage)), // #nosec G115
				More:     true,
			},
		},
		{
			Type:       mocktransport.EntryTypeBlockRequest,
			InputIndex: 1,
		},
		{
			Type: mocktransport.EntryTypeBlock,
			OutputBlock: transport.Block{
				Index:   0,
				Payload: testImage[:64],
				More:    true,
			},
		},
	}
	runTest(t, conversation, func(t *testing.T, c *fota.Client) {
		mem := sink.NewMemorySink()
		result, err := c.Run(context.Background(), testReport, mem)
		assert.ErrorIs(t, err, protocol.ErrSequencingViolation)
		require.NotNil(t, result)
		assert.Equal(t, fota.OutcomeDownloadFailed, result.Outcome)
		assert.ErrorIs(t, result.Err, protocol.ErrSequencingViolation)
		assert.Equal(t, uint64(64), result.BytesReceived)
		assert.Equal(t, 1, result.Blocks)
		assert.Nil(t, result.Digest)
		assert.Equal(t, 1, mem.Writes())
		assert.False(t, mem.Finalized())
		assert.ErrorIs(t, mem.Aborted(), protocol.ErrSequencingViolation)
	})
}

func TestRunFatalTransportEvent(t *testing.T) {
	conversation := []mocktransport.ConversationEntry{
		conversationReportUpgrade(t),
		conversationOpenSession,
		{
			Type:       mocktransport.EntryTypeBlockRequest,
			InputIndex: 0,
		},
		{
			Type:       mocktransport.EntryTypeFatal,
			FatalError: errors.New("dtls: connection closed"),
		},
	}
	runTest(t, conversation, func(t *testing.T, c *fota.Client) {
		mem := sink.NewMemorySink()
		result, err := c.Run(context.Background(), testReport, mem)
		assert.ErrorIs(t, err, transport.ErrSessionLost)
		require.NotNil(t, result)
		assert.Equal(t, fota.OutcomeDownloadFailed, result.Outcome)
		assert.ErrorIs(t, mem.Aborted(), transport.ErrSessionLost)
	})
}

func TestRunCancelled(t *testing.T) {
	conversation := []mocktransport.ConversationEntry{
		conversationReportUpgrade(t),
		conversationOpenSession,
	}
	runTest(t, conversation, func(t *testing.T, c *fota.Client) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		mem := sink.NewMemorySink()
		result, err := c.Run(ctx, testReport, mem)
		assert.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		assert.Equal(t, fota.OutcomeDownloadFailed, result.Outcome)
		assert.Zero(t, mem.Writes())
	})
}

func TestRunNoSink(t *testing.T) {
	conversation := []mocktransport.ConversationEntry{
		conversationReportUpgrade(t),
	}
	runTest(t, conversation, func(t *testing.T, c *fota.Client) {
		result, err := c.Run(context.Background(), testReport, nil)
		assert.ErrorIs(t, err, protocol.ErrNoHandler)
		require.NotNil(t, result)
		assert.Equal(t, fota.OutcomeDownloadFailed, result.Outcome)
	})
}

func TestCheckForUpdate(t *testing.T) {
	runTest(
		t,
		[]mocktransport.ConversationEntry{conversationReportUpgrade(t)},
		func(t *testing.T, c *fota.Client) {
			resp, err := c.CheckForUpdate(context.Background(), testReport)
			require.NoError(t, err)
			assert.True(t, resp.HasNewVersion)
			assert.Equal(t, testEndpoint.Host, resp.Hostname)
			assert.Equal(t, testEndpoint.Port, resp.Port)
			assert.Equal(t, testEndpoint.Path, resp.Path)
		},
	)
}

func TestNewClientNoTransport(t *testing.T) {
	_, err := fota.NewClient()
	assert.ErrorIs(t, err, protocol.ErrNoHandler)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "NoUpgrade", fota.OutcomeNoUpgrade.String())
	assert.Equal(t, "DownloadComplete", fota.OutcomeDownloadComplete.String())
	assert.Equal(t, "DownloadFailed", fota.OutcomeDownloadFailed.String())
	assert.Equal(t, "Outcome(42)", fota.Outcome(42).String())
}

func TestReportBytes(t *testing.T) {
	data, err := report.EncodeReport(testReport)
	require.NoError(t, err)
	assert.Equal(
		t,
		"0105312e302e30"+
			"040f4c616235652044656d6f20436f7270"+
			"030430303031"+
			"02086d6f64656c203031",
		hex.EncodeToString(data),
	)
}
