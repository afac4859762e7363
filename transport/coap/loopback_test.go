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
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/blinklabs-io/gofota"
	"github.com/blinklabs-io/gofota/internal/test"
	"github.com/blinklabs-io/gofota/protocol/report"
	"github.com/blinklabs-io/gofota/sink"
	"github.com/blinklabs-io/gofota/transport"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/mux"
	coapnet "github.com/plgd-dev/go-coap/v3/net"
	"github.com/plgd-dev/go-coap/v3/net/blockwise"
	"github.com/plgd-dev/go-coap/v3/options"
	"github.com/plgd-dev/go-coap/v3/udp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerBlockSize = 16

var testServerImage = test.NewImage(80)

func uint32Option(t *testing.T, id message.OptionID, value uint32) message.Option {
	buf := make([]byte, 4)
	n, err := message.EncodeUint32(buf, value)
	require.NoError(t, err)
	return message.Option{ID: id, Value: buf[:n]}
}

// startTestServer runs a CoAP server on a loopback port. It answers reports
// on "u" with reportResp and serves testServerImage on "fw" in 16 byte
// blocks with the total size in Size2
func startTestServer(t *testing.T, reportResp []byte) string {
	r := mux.NewRouter()
	require.NoError(t, r.Handle("/u", mux.HandlerFunc(func(w mux.ResponseWriter, req *mux.Message) {
		body, err := req.ReadBody()
		if err != nil || len(body) == 0 {
			_ = w.SetResponse(codes.BadRequest, message.TextPlain, nil)
			return
		}
		_ = w.SetResponse(codes.Changed, message.AppOctets, bytes.NewReader(reportResp))
	})))
	require.NoError(t, r.Handle("/fw", mux.HandlerFunc(func(w mux.ResponseWriter, req *mux.Message) {
		var num int64
		if value, err := req.GetOptionUint32(message.Block2); err == nil {
			_, num, _, err = blockwise.DecodeBlockOption(value)
			if err != nil {
				_ = w.SetResponse(codes.BadOption, message.TextPlain, nil)
				return
			}
		}
		start := int(num) * testServerBlockSize
		if start >= len(testServerImage) {
			_ = w.SetResponse(codes.BadOption, message.TextPlain, nil)
			return
		}
		end := min(start+testServerBlockSize, len(testServerImage))
		block2, err := blockwise.EncodeBlockOption(
			blockwise.SZX16,
			num,
			end < len(testServerImage),
		)
		if err != nil {
			_ = w.SetResponse(codes.InternalServerError, message.TextPlain, nil)
			return
		}
		_ = w.SetResponse(
			codes.Content,
			message.AppOctets,
			bytes.NewReader(testServerImage[start:end]),
			uint32Option(t, message.Block2, block2),
			uint32Option(t, message.Size2, uint32(len(testServerImage))),
		)
	})))
	l, err := coapnet.NewListenUDP("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	s := udp.NewServer(
		options.WithMux(r),
		options.WithBlockwise(false, blockwise.SZX1024, time.Minute),
	)
	go func() {
		_ = s.Serve(l)
	}()
	t.Cleanup(func() {
		s.Stop()
		_ = l.Close()
	})
	return l.LocalAddr().String()
}

func newTestTransport(t *testing.T, address string) *Transport {
	tr, err := New(NewConfig(
		WithAddress(address),
		WithNetwork(NetworkUDP),
		WithLogger(test.NewLogger()),
	))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tr.Close()
	})
	return tr
}

func TestTransportReportExchange(t *testing.T) {
	respData, err := report.EncodeResponse(report.Response{})
	require.NoError(t, err)
	tr := newTestTransport(t, startTestServer(t, respData))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := tr.Send(ctx, transport.Request{Path: "u", Payload: []byte{0x01, 0x00}})
	require.NoError(t, err)
	data, err := tr.Response(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, respData, data)
	// Each exchange is collected once
	_, err = tr.Response(ctx, id)
	assert.ErrorIs(t, err, transport.ErrUnknownExchange)
}

func TestTransportErrorCode(t *testing.T) {
	tr := newTestTransport(t, startTestServer(t, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := tr.Send(ctx, transport.Request{Path: "missing", Payload: []byte{0x01, 0x00}})
	require.NoError(t, err)
	_, err = tr.Response(ctx, id)
	assert.ErrorIs(t, err, transport.ErrTransportFailure)
	var tErr *transport.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, codes.NotFound.String(), tErr.Code)
}

func TestTransportBlocks(t *testing.T) {
	tr := newTestTransport(t, startTestServer(t, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := tr.OpenSession(ctx, transport.Endpoint{Path: "fw"})
	require.NoError(t, err)
	defer sess.Close()
	var image []byte
	for index := uint32(0); ; index++ {
		require.NoError(t, sess.RequestBlock(ctx, index))
		blk, err := sess.NextBlock(ctx)
		require.NoError(t, err)
		assert.Equal(t, index, blk.Index)
		assert.Equal(t, uint32(len(testServerImage)), blk.SizeHint)
		image = append(image, blk.Payload...)
		if !blk.More {
			break
		}
	}
	assert.Equal(t, testServerImage, image)
	// The server's block size is kept for later requests
	assert.Equal(t, blockwise.SZX16, sess.(*Session).szx)
}

func TestTransportRun(t *testing.T) {
	respData, err := report.EncodeResponse(report.Response{
		HasNewVersion: true,
		Path:          "fw",
	})
	require.NoError(t, err)
	tr := newTestTransport(t, startTestServer(t, respData))
	c, err := fota.NewClient(
		fota.WithTransport(tr),
		fota.WithLogger(test.NewLogger()),
	)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mem := sink.NewMemorySink()
	result, err := c.Run(
		ctx,
		report.Report{
			Version:      "1.0.0",
			Manufacturer: "Lab5e Demo Corp",
			Serial:       "0001",
			Model:        "model 01",
		},
		mem,
	)
	require.NoError(t, err)
	assert.Equal(t, fota.OutcomeDownloadComplete, result.Outcome)
	assert.Equal(t, 5, result.Blocks)
	assert.Equal(t, uint64(len(testServerImage)), result.TotalSize)
	assert.Equal(t, testServerImage, mem.Bytes())
}

func TestOwnedConnectionClosed(t *testing.T) {
	address := startTestServer(t, nil)
	tr := newTestTransport(t, address)
	_, port, err := net.SplitHostPort(address)
	require.NoError(t, err)
	portNum, err := strconv.ParseUint(port, 10, 32)
	require.NoError(t, err)
	endpoint := transport.Endpoint{
		Host: "localhost",
		Port: uint32(portNum),
		Path: "fw",
	}
	ctx := context.Background()

	// Closing the session does not report a lost connection
	sess, err := tr.OpenSession(ctx, endpoint)
	require.NoError(t, err)
	require.True(t, sess.(*Session).owned)
	require.NoError(t, sess.Close())

	// Losing the connection underneath an open session does
	sess, err = tr.OpenSession(ctx, endpoint)
	require.NoError(t, err)
	require.NoError(t, sess.(*Session).conn.Close())
	select {
	case err := <-tr.Fatal():
		assert.ErrorIs(t, err, transport.ErrSessionLost)
		assert.Contains(t, err.Error(), "localhost:"+port)
	case <-time.After(5 * time.Second):
		t.Fatalf("did not receive fatal event")
	}
	_ = sess.Close()
}
