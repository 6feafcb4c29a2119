// Package metrics exposes Prometheus collectors for refreshes, RPC batches,
// pipeline updates and stream clients. A nil *Metrics records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	refreshDuration prometheus.Histogram
	refreshes       *prometheus.CounterVec
	rpcBatches      *prometheus.CounterVec
	updates         prometheus.Counter
	streamClients   prometheus.Gauge
	displayedTokens prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "walletboard_refresh_duration_seconds",
			Help:    "Duration of a full balance refresh across all wallets",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletboard_refreshes_total",
			Help: "Balance refreshes by outcome",
		}, []string{"status"}),
		rpcBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "walletboard_rpc_batches_total",
			Help: "Balance RPC batches by chain and outcome",
		}, []string{"chain_id", "status"}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "walletboard_pipeline_updates_total",
			Help: "Token list updates published to subscribers",
		}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "walletboard_stream_clients",
			Help: "Connected token stream clients",
		}),
		displayedTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "walletboard_displayed_tokens",
			Help: "Token rows in the current snapshot",
		}),
	}
	reg.MustRegister(
		m.refreshDuration, m.refreshes, m.rpcBatches,
		m.updates, m.streamClients, m.displayedTokens,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRefresh records one refresh cycle.
func (m *Metrics) ObserveRefresh(start time.Time, err error) {
	if m == nil {
		return
	}
	m.refreshDuration.Observe(time.Since(start).Seconds())
	m.refreshes.WithLabelValues(status(err)).Inc()
}

// ObserveRPCBatch records one balance batch against a chain.
func (m *Metrics) ObserveRPCBatch(chainID uint64, err error) {
	if m == nil {
		return
	}
	m.rpcBatches.WithLabelValues(strconv.FormatUint(chainID, 10), status(err)).Inc()
}

// ObserveUpdate records a published update with the given token row count.
func (m *Metrics) ObserveUpdate(tokenRows int) {
	if m == nil {
		return
	}
	m.updates.Inc()
	m.displayedTokens.Set(float64(tokenRows))
}

// StreamConnected adjusts the stream client gauge by delta.
func (m *Metrics) StreamConnected(delta int) {
	if m == nil {
		return
	}
	m.streamClients.Add(float64(delta))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
