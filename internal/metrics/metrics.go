// Package metrics exposes settlement engine counters. Services depend on the
// Collector interface; a Prometheus implementation and a no-op are provided.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records engine-level events.
type Collector interface {
	RecordSettlementRun(result string)
	RecordFeeLines(count int)
	RecordReserveCreated()
	RecordReservesReleased(count int)
	RecordMissingRate(currency string)
	RecordChargebackTracked(status string)
}

// NoopCollector discards all metrics. Used in tests and when metrics are
// disabled.
type NoopCollector struct{}

func (NoopCollector) RecordSettlementRun(string)     {}
func (NoopCollector) RecordFeeLines(int)             {}
func (NoopCollector) RecordReserveCreated()          {}
func (NoopCollector) RecordReservesReleased(int)     {}
func (NoopCollector) RecordMissingRate(string)       {}
func (NoopCollector) RecordChargebackTracked(string) {}

// PrometheusCollector implements Collector over prometheus counters.
type PrometheusCollector struct {
	settlementRuns     *prometheus.CounterVec
	feeLines           prometheus.Counter
	reservesCreated    prometheus.Counter
	reservesReleased   prometheus.Counter
	missingRates       *prometheus.CounterVec
	chargebacksTracked *prometheus.CounterVec
}

// NewPrometheusCollector registers the engine counters on a registerer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)
	return &PrometheusCollector{
		settlementRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_runs_total",
			Help: "Settlement runs by result.",
		}, []string{"result"}),
		feeLines: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_fee_lines_total",
			Help: "Fee lines emitted across all runs.",
		}),
		reservesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "rolling_reserve_entries_created_total",
			Help: "Rolling reserve entries created.",
		}),
		reservesReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "rolling_reserve_entries_released_total",
			Help: "Rolling reserve entries released.",
		}),
		missingRates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scheme_rate_fallbacks_total",
			Help: "Rate lookups that fell back to a degraded rate.",
		}, []string{"currency"}),
		chargebacksTracked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chargebacks_tracked_total",
			Help: "Chargeback tracking events by status.",
		}, []string{"status"}),
	}
}

func (c *PrometheusCollector) RecordSettlementRun(result string) {
	c.settlementRuns.WithLabelValues(result).Inc()
}

func (c *PrometheusCollector) RecordFeeLines(count int) {
	c.feeLines.Add(float64(count))
}

func (c *PrometheusCollector) RecordReserveCreated() {
	c.reservesCreated.Inc()
}

func (c *PrometheusCollector) RecordReservesReleased(count int) {
	c.reservesReleased.Add(float64(count))
}

func (c *PrometheusCollector) RecordMissingRate(currency string) {
	c.missingRates.WithLabelValues(currency).Inc()
}

func (c *PrometheusCollector) RecordChargebackTracked(status string) {
	c.chargebacksTracked.WithLabelValues(status).Inc()
}
