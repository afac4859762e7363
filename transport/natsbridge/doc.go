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

// Package natsbridge implements the FOTA transport as NATS request/reply.
//
// Reports are published to "<prefix>.<path>" and the reply carries the TLV
// encoded response. Blocks are requested from "<prefix>.<endpoint path>" with
// the block index in the Fota-Block header; the reply body is the block and
// its headers carry the block index, the total size and the continuation
// flag. A bridge on the server side translates these requests to the update
// server.
package natsbridge
