// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"code.vegaprotocol.io/betvex/logging"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "betvex"

var (
	engineTime         *prometheus.CounterVec
	transactionCounter *prometheus.CounterVec
	eventCounter       *prometheus.CounterVec
	sagaCounter        *prometheus.CounterVec
	pendingCallsGauge  prometheus.Gauge
	// Call counters for each request type per API
	apiRequestCallCounter *prometheus.CounterVec
	// Duration of each request type per API
	apiRequestDuration *prometheus.HistogramVec
)

// Start enable metrics (given config).
func Start(log *logging.Logger, conf Config) {
	if !conf.Enabled {
		return
	}
	reg := prometheus.NewRegistry()
	if err := setupMetrics(reg); err != nil {
		log.Panic("could not set up metrics", logging.Error(err))
	}
	mux := http.NewServeMux()
	mux.Handle(conf.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		addr := fmt.Sprintf(":%d", conf.Port)
		log.Info("starting metrics server", logging.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics server stopped", logging.Error(err))
		}
	}()
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
}

func setupMetrics(reg prometheus.Registerer) error {
	ec := counterVec("engine_seconds_total", "Time spent in each engine call", "engine", "fn")
	tc := counterVec("transactions_total", "Number of transactions processed", "command", "result")
	evc := counterVec("events_total", "Number of events sent to the broker", "type")
	sc := counterVec("sagas_total", "Number of multi-call settlements by outcome", "saga", "outcome")
	pg := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_external_calls",
		Help:      "Number of external calls waiting on their continuation",
	})
	rc := counterVec("request_count_total", "Count of API requests", "apiType", "requestType")
	rd := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of API requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"apiType", "requestType"})

	for name, col := range map[string]prometheus.Collector{
		"engine_seconds_total":     ec,
		"transactions_total":       tc,
		"events_total":             evc,
		"sagas_total":              sc,
		"pending_external_calls":   pg,
		"request_count_total":      rc,
		"request_duration_seconds": rd,
	} {
		if err := reg.Register(col); err != nil {
			return errors.Wrap(err, name)
		}
	}

	engineTime, transactionCounter, eventCounter, sagaCounter = ec, tc, evc, sc
	pendingCallsGauge = pg
	apiRequestCallCounter, apiRequestDuration = rc, rd
	return nil
}

// EngineTimeCounterAdd adds the time spent since start in an engine call.
func EngineTimeCounterAdd(start time.Time, labelValues ...string) {
	if engineTime == nil {
		return
	}
	engineTime.WithLabelValues(labelValues...).Add(time.Since(start).Seconds())
}

// TransactionCounterInc increments the transaction counter.
func TransactionCounterInc(labelValues ...string) {
	if transactionCounter == nil {
		return
	}
	transactionCounter.WithLabelValues(labelValues...).Inc()
}

func EventCounterInc(labelValues ...string) {
	if eventCounter == nil {
		return
	}
	eventCounter.WithLabelValues(labelValues...).Inc()
}

// SagaSettledCounterInc counts a saga that went through all of its steps.
func SagaSettledCounterInc(saga string) {
	if sagaCounter == nil {
		return
	}
	sagaCounter.WithLabelValues(saga, "settled").Inc()
}

// SagaDegradedCounterInc counts a saga left for an operator to reconcile.
func SagaDegradedCounterInc(saga string) {
	if sagaCounter == nil {
		return
	}
	sagaCounter.WithLabelValues(saga, "degraded").Inc()
}

// PendingCallsGaugeSet update the number of external calls in flight.
func PendingCallsGaugeSet(n int) {
	if pendingCallsGauge == nil {
		return
	}
	pendingCallsGauge.Set(float64(n))
}

// APIRequestAndTimeREST updates the metrics for REST API calls
func APIRequestAndTimeREST(request string, seconds float64) {
	if apiRequestCallCounter == nil || apiRequestDuration == nil {
		return
	}
	apiRequestCallCounter.WithLabelValues("REST", request).Inc()
	apiRequestDuration.WithLabelValues("REST", request).Observe(seconds)
}

// StartAPIRequestAndTimeREST returns a func recording the call when invoked.
func StartAPIRequestAndTimeREST(request string) func() {
	startTime := time.Now()
	return func() {
		APIRequestAndTimeREST(request, time.Since(startTime).Seconds())
	}
}
