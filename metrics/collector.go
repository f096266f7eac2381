// Package metrics exports Prometheus metrics for generate-content operations.
//
// A Collector consumes client events: operation outcomes and latency, every
// dispatcher attempt, rate-limit backoffs and exhausted budgets. Operations
// in progress are read from the client at scrape time, so dropped events
// never skew them.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/client"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "relay"

// Operation status label values.
const (
	StatusSuccess       = "success"
	StatusError         = "error"
	StatusUnconfigured  = "unconfigured"
	StatusAllKeysFailed = "all_keys_failed"
)

// Collector records client events as Prometheus metrics.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	attemptsTotal   *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	backoffSeconds  *prometheus.HistogramVec
	exhaustedTotal  *prometheus.CounterVec

	namespace string
	factory   promauto.Factory
	logger    *zap.Logger
}

// InFlightCounter reports generate-content operations in progress.
type InFlightCounter interface {
	InFlight(provider ai.Provider) int64
}

// NewCollector registers the metrics with reg. A nil reg uses the default
// registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		namespace: namespace,
		factory:   factory,
		logger:    logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of generate-content operations",
		},
		[]string{"provider", "model", "status"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Generate-content operation duration in seconds, retries included",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)

	c.attemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Total number of provider attempts",
		},
		[]string{"provider"},
	)

	c.failuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempt_failures_total",
			Help:      "Total number of failed provider attempts",
		},
		[]string{"provider", "kind"}, // kind: rate_limited, transient
	)

	c.backoffSeconds = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backoff_seconds",
			Help:      "Rate-limit waits in seconds",
			Buckets:   []float64{1, 2, 4, 6, 8, 10, 15, 20, 30},
		},
		[]string{"provider"},
	)

	c.exhaustedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exhausted_total",
			Help:      "Total number of operations that used up every attempt",
		},
		[]string{"provider"},
	)

	return c
}

// TrackInFlight exports the in-progress counts of src as the
// inflight_requests gauge, one series per provider.
func (c *Collector) TrackInFlight(src InFlightCounter) {
	for _, p := range ai.Providers() {
		c.factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   c.namespace,
				Name:        "inflight_requests",
				Help:        "Generate-content operations in progress",
				ConstLabels: prometheus.Labels{"provider": p.String()},
			},
			func() float64 { return float64(src.InFlight(p)) },
		)
	}
}

// Observe records a single client event.
func (c *Collector) Observe(e client.Event) {
	provider := e.Provider.String()

	switch e.Type {
	case client.EventRequestComplete:
		c.requestsTotal.WithLabelValues(provider, e.Model, StatusSuccess).Inc()
		c.requestDuration.WithLabelValues(provider, e.Model).Observe(e.Duration.Seconds())

	case client.EventRequestError:
		c.requestsTotal.WithLabelValues(provider, e.Model, errorStatus(e.Error)).Inc()
		c.requestDuration.WithLabelValues(provider, e.Model).Observe(e.Duration.Seconds())

	case client.EventRetry:
		if e.RetryEvent != nil {
			c.observeRetry(provider, *e.RetryEvent)
		}
	}
}

func (c *Collector) observeRetry(provider string, re client.RetryEvent) {
	switch re.Type {
	case client.RetryEventAttemptStart:
		c.attemptsTotal.WithLabelValues(provider).Inc()
	case client.RetryEventAttemptFailed:
		kind := ai.KindTransient
		if re.RateLimited {
			kind = ai.KindRateLimited
		}
		c.failuresTotal.WithLabelValues(provider, string(kind)).Inc()
	case client.RetryEventBackoff:
		c.backoffSeconds.WithLabelValues(provider).Observe(re.Delay.Seconds())
	case client.RetryEventExhausted:
		c.exhaustedTotal.WithLabelValues(provider).Inc()
	}
}

// Consume observes events until the channel closes or ctx is done.
func (c *Collector) Consume(ctx context.Context, events <-chan client.Event) {
	start := time.Now()
	var n int
	defer func() {
		c.logger.Debug("event consumer stopped",
			zap.Int("events", n),
			zap.Duration("uptime", time.Since(start)))
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			n++
			c.Observe(e)
		}
	}
}

func errorStatus(err error) string {
	switch ai.KindOf(err) {
	case ai.KindConfiguration:
		return StatusUnconfigured
	case ai.KindAllCredentialsFailed:
		return StatusAllKeysFailed
	default:
		return StatusError
	}
}
