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

// Package blockwise implements the blockwise image download.
//
// The server pages the image into fixed-size blocks and the client requests
// them one at a time by index. A Session reassembles the blocks and rejects
// protocol violations before any byte reaches the sink.
//
// # State Machine
//
// Session states: Idle -> InProgress -> Complete, or Aborted from Idle or
// InProgress. Complete and Aborted are terminal.
package blockwise
