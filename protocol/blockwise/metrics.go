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

package blockwise

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultComplete = "complete"
	resultFailed   = "failed"
)

var (
	metricBlocksReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fota",
		Subsystem: "blockwise",
		Name:      "blocks_received_total",
		Help:      "Total number of blocks received",
	})
	metricBytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fota",
		Subsystem: "blockwise",
		Name:      "received_bytes_total",
		Help:      "Total amount of image data received",
	})
	metricDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fota",
		Subsystem: "blockwise",
		Name:      "downloads_total",
		Help:      "Total number of downloads by result",
	}, []string{"result"})
)
