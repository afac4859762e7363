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

// Package coap implements the FOTA transport over CoAP, either plain UDP or
// DTLS with certificate authentication.
//
// Block transfers are driven by the caller: the automatic blockwise handling
// of the CoAP library is disabled, every block is requested with an explicit
// Block2 option and the Size2 option of the response is passed on as the
// size hint.
package coap
