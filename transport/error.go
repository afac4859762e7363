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

package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportFailure is the root of every error a transport reports
	ErrTransportFailure = errors.New("transport failure")
	// ErrSessionLost is reported when the secure session is gone for good
	ErrSessionLost = fmt.Errorf("%w: session lost", ErrTransportFailure)
	// ErrUnknownExchange is returned when a response is requested for an exchange that was never sent
	ErrUnknownExchange = fmt.Errorf("%w: unknown exchange", ErrTransportFailure)
	// ErrClosed is returned when a closed transport or session is used
	ErrClosed = fmt.Errorf("%w: closed", ErrTransportFailure)
)

// Error describes a failed transport operation
type Error struct {
	// Op is the operation that failed, for example "send" or "request block"
	Op string
	// Code is the response code returned by the server, if any
	Code string
	Err  error
}

func (e *Error) Error() string {
	msg := "transport: " + e.Op
	if e.Code != "" {
		msg += ": response code " + e.Code
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every Error match ErrTransportFailure
func (e *Error) Is(target error) bool {
	return target == ErrTransportFailure
}

// NewError wraps err as a failed transport operation
func NewError(op string, err error) *Error {
	return &Error{Op: op, Err: err}
}
