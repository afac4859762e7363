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

package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultNoUpgrade = "no_upgrade"
	resultUpgrade   = "upgrade"
	resultError     = "error"
)

var (
	metricReportSentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fota",
		Subsystem: "report",
		Name:      "sent_bytes_total",
		Help:      "Total amount of report data sent",
	})
	metricReportExchanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fota",
		Subsystem: "report",
		Name:      "exchanges_total",
		Help:      "Total number of report exchanges by result",
	}, []string{"result"})
)

func init() {
	// Register the result labels so that counters are present even when zero
	for _, result := range []string{resultNoUpgrade, resultUpgrade, resultError} {
		metricReportExchanges.WithLabelValues(result)
	}
}
