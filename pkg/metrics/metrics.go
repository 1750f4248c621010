// Package metrics exposes the Prometheus instrumentation AuthCore reports
// through, mirroring pkg/metrics' pattern of a single Collector struct
// bundling related counters/histograms and a package-level default
// instance registered against prometheus.DefaultRegisterer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector bundles the counters and histograms zkauth reports.
type Collector struct {
	RegisterTotal    *prometheus.CounterVec
	LoginTotal       *prometheus.CounterVec
	SharesUsed       prometheus.Histogram
	OperationSeconds *prometheus.HistogramVec
}

// NewCollector builds a Collector and registers its metrics against reg.
// Passing prometheus.NewRegistry() isolates the collector for tests.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		RegisterTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zkauth",
			Name:      "register_total",
			Help:      "Total number of Register calls by outcome.",
		}, []string{"result"}),
		LoginTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zkauth",
			Name:      "login_total",
			Help:      "Total number of Login calls by outcome.",
		}, []string{"result"}),
		SharesUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "zkauth",
			Name:      "shares_used",
			Help:      "Number of shares successfully combined to reconstruct a master key.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		OperationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zkauth",
			Name:      "operation_seconds",
			Help:      "Latency of AuthCore operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(c.RegisterTotal, c.LoginTotal, c.SharesUsed, c.OperationSeconds)
	return c
}

// Default is a Collector registered against prometheus.DefaultRegisterer,
// used when AuthCoreConfig.Metrics is left nil.
var Default = NewCollector(prometheus.DefaultRegisterer)

// ObserveDuration records d against operation's histogram bucket.
func (c *Collector) ObserveDuration(operation string, d time.Duration) {
	c.OperationSeconds.WithLabelValues(operation).Observe(d.Seconds())
}
