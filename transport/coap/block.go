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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gofota/transport"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/net/blockwise"
)

// successClass is the class of the 2.xx response codes
const successClass = 2

// isSuccess reports whether code is a 2.xx response code
func isSuccess(code codes.Code) bool {
	return uint8(code)>>5 == successClass
}

func checkCode(op string, code codes.Code) error {
	if isSuccess(code) {
		return nil
	}
	return &transport.Error{
		Op:   op,
		Code: code.String(),
		Err:  fmt.Errorf("unexpected response class %d", uint8(code)>>5),
	}
}

// encodeBlock2 returns the Block2 option requesting block index with the given size
func encodeBlock2(szx blockwise.SZX, index uint32) (message.Option, error) {
	value, err := blockwise.EncodeBlockOption(szx, int64(index), false)
	if err != nil {
		return message.Option{}, err
	}
	buf := make([]byte, 4)
	n, err := message.EncodeUint32(buf, value)
	if err != nil {
		return message.Option{}, err
	}
	return message.Option{ID: message.Block2, Value: buf[:n]}, nil
}

// blockOptions holds what a block response says about the transfer
type blockOptions struct {
	index    uint32
	szx      blockwise.SZX
	more     bool
	sizeHint uint32
}

// parseBlockOptions interprets the Block2 and Size2 options of a response. A
// response without Block2 is the whole resource in one block
func parseBlockOptions(
	requested uint32,
	szx blockwise.SZX,
	block2 uint32,
	hasBlock2 bool,
	size2 uint32,
	hasSize2 bool,
) (blockOptions, error) {
	ret := blockOptions{
		index: requested,
		szx:   szx,
	}
	if hasBlock2 {
		respSzx, num, more, err := blockwise.DecodeBlockOption(block2)
		if err != nil {
			return ret, fmt.Errorf("decode block2 option: %w", err)
		}
		if num < 0 || num > int64(^uint32(0)) {
			return ret, errors.New("block number out of range")
		}
		ret.index = uint32(num)
		ret.szx = respSzx
		ret.more = more
	}
	if hasSize2 {
		ret.sizeHint = size2
	}
	return ret, nil
}
