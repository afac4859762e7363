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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gofota/transport"
	"github.com/nats-io/nats.go"
)

// Header names used on block requests and replies
const (
	HeaderBlock = "Fota-Block"
	HeaderSize  = "Fota-Size"
	HeaderMore  = "Fota-More"
	HeaderError = "Fota-Error"
)

// subject joins the prefix and a resource path into a subject. Slashes in the
// path become subject token separators
func subject(prefix string, path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", errors.New("empty resource path")
	}
	tokens := strings.Split(path, "/")
	for _, token := range tokens {
		if token == "" || strings.ContainsAny(token, " \t\r\n.*>") {
			return "", fmt.Errorf("invalid resource path %q", path)
		}
	}
	if prefix == "" {
		return strings.Join(tokens, "."), nil
	}
	return prefix + "." + strings.Join(tokens, "."), nil
}

// newBlockRequest builds the request message for block index
func newBlockRequest(subj string, index uint32) *nats.Msg {
	msg := nats.NewMsg(subj)
	msg.Header.Set(HeaderBlock, strconv.FormatUint(uint64(index), 10))
	return msg
}

// checkReply turns an error header on a reply into a transport error
func checkReply(op string, msg *nats.Msg) error {
	if msg.Header == nil {
		return nil
	}
	if code := msg.Header.Get(HeaderError); code != "" {
		return &transport.Error{
			Op:   op,
			Code: code,
			Err:  errors.New("server reported an error"),
		}
	}
	return nil
}

// parseBlockReply reads a block from a reply. A reply without the block
// header is the whole resource in one block
func parseBlockReply(requested uint32, msg *nats.Msg) (transport.Block, error) {
	ret := transport.Block{
		Index:   requested,
		Payload: msg.Data,
	}
	if msg.Header == nil {
		return ret, nil
	}
	if value := msg.Header.Get(HeaderBlock); value != "" {
		index, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return ret, fmt.Errorf("invalid %s header: %w", HeaderBlock, err)
		}
		ret.Index = uint32(index)
	}
	if value := msg.Header.Get(HeaderSize); value != "" {
		size, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return ret, fmt.Errorf("invalid %s header: %w", HeaderSize, err)
		}
		ret.SizeHint = uint32(size)
	}
	if value := msg.Header.Get(HeaderMore); value != "" {
		more, err := strconv.ParseBool(value)
		if err != nil {
			return ret, fmt.Errorf("invalid %s header: %w", HeaderMore, err)
		}
		ret.More = more
	}
	return ret, nil
}
