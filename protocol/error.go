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

package protocol

import "errors"

// ErrNoHandler is returned when a required collaborator, such as a transport
// or a sink, was never configured
var ErrNoHandler = errors.New("no handler configured")

// Protocol violation errors abort the current exchange or transfer
var (
	ErrSequencingViolation = errors.New(
		"protocol violation: block received out of sequence",
	)
	ErrSizeInconsistency = errors.New(
		"protocol violation: inconsistent transfer size",
	)
	ErrEmptyPayload = errors.New(
		"protocol violation: empty payload where data was expected",
	)
	ErrInvalidTransition = errors.New(
		"protocol violation: invalid state transition",
	)
)
