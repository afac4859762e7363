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

package sink

import (
	"hash"

	"golang.org/x/crypto/blake2b"
)

// HashingSink computes a Blake2b-256 digest of the image while passing the
// data through to another sink
type HashingSink struct {
	next Sink
	hash hash.Hash
	sum  []byte
}

// NewHashingSink wraps next. A nil next only computes the digest
func NewHashingSink(next Sink) *HashingSink {
	// blake2b.New256 only fails for keys longer than 64 bytes
	h, _ := blake2b.New256(nil)
	return &HashingSink{
		next: next,
		hash: h,
	}
}

func (h *HashingSink) Write(payload []byte) error {
	if h.sum != nil {
		return ErrFinalized
	}
	if h.next != nil {
		if err := h.next.Write(payload); err != nil {
			return err
		}
	}
	h.hash.Write(payload)
	return nil
}

func (h *HashingSink) Finalize() error {
	if h.sum != nil {
		return ErrFinalized
	}
	if h.next != nil {
		if err := h.next.Finalize(); err != nil {
			return err
		}
	}
	h.sum = h.hash.Sum(nil)
	return nil
}

func (h *HashingSink) Abort(cause error) error {
	if h.next == nil {
		return nil
	}
	return Abort(h.next, cause)
}

// Sum returns the digest of the complete image, or nil before Finalize
func (h *HashingSink) Sum() []byte {
	return h.sum
}
