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

// Package test holds helpers shared by the package tests
package test

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// DecodeHexString decodes a hex string and panics on invalid input, which
// makes it usable inline in test tables. Whitespace anywhere in the string is
// ignored so that wire examples can be grouped by field
func DecodeHexString(hexData string) []byte {
	hexData = strings.Join(strings.Fields(hexData), "")
	decoded, err := hex.DecodeString(hexData)
	if err != nil {
		panic(fmt.Sprintf("error decoding hex: %s", err))
	}
	return decoded
}

// NewImage returns a firmware image of the given size. Every byte depends on
// its offset, so misplaced or repeated blocks change the content
func NewImage(size int) []byte {
	ret := make([]byte, size)
	for i := range ret {
		ret[i] = byte(i*7 + i/251)
	}
	return ret
}

// NewLogger returns a logger that discards everything
func NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
