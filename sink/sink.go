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

// Package sink receives the bytes of a firmware image as its blocks are
// accepted.
package sink

import (
	"errors"
)

var (
	// ErrFinalized is returned when a sink is used after Finalize
	ErrFinalized = errors.New("sink: already finalized")
	// ErrAborted is returned when a sink is used after Abort
	ErrAborted = errors.New("sink: aborted")
)

// Sink receives accepted block payloads. Write is called once per accepted
// block in strictly increasing block order and Finalize is called once when
// the transfer completes
type Sink interface {
	Write(payload []byte) error
	Finalize() error
}

// Aborter is implemented by sinks that want to discard partial data when a
// transfer is aborted. Abort is called at most once and nothing else is
// called afterwards
type Aborter interface {
	Abort(cause error) error
}

// Abort calls s.Abort if s implements Aborter
func Abort(s Sink, cause error) error {
	if a, ok := s.(Aborter); ok {
		return a.Abort(cause)
	}
	return nil
}
