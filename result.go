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

package fota

import (
	"fmt"

	"github.com/blinklabs-io/gofota/manifest"
	"github.com/blinklabs-io/gofota/protocol/report"
)

// Outcome is the final state of a Run
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeNoUpgrade
	OutcomeDownloadComplete
	OutcomeDownloadFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "None"
	case OutcomeNoUpgrade:
		return "NoUpgrade"
	case OutcomeDownloadComplete:
		return "DownloadComplete"
	case OutcomeDownloadFailed:
		return "DownloadFailed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result describes how a Run ended
type Result struct {
	Outcome Outcome
	// Err is the reason for OutcomeDownloadFailed
	Err error
	// Response is the decoded server response
	Response      *report.Response
	BytesReceived uint64
	TotalSize     uint64
	Blocks        int
	// Digest is the Blake2b-256 digest of a completed image
	Digest []byte
	// Manifest is set when a manifest was written
	Manifest *manifest.Manifest
}
