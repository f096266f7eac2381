package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ai "github.com/spetersoncode/relay"
	"github.com/spetersoncode/relay/client"
)

func newTestCollector() *Collector {
	return NewCollector("test", prometheus.NewRegistry(), zap.NewNop())
}

func retryEvent(re client.RetryEvent) client.Event {
	return client.Event{Type: client.EventRetry, Provider: ai.ProviderOpenAI, RetryEvent: &re}
}

func TestCollectorRequestOutcomes(t *testing.T) {
	c := newTestCollector()

	c.Observe(client.Event{Type: client.EventRequestStart, Provider: ai.ProviderGemini, Model: "m"})
	c.Observe(client.Event{Type: client.EventRequestComplete, Provider: ai.ProviderGemini, Model: "m", Duration: time.Second})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("gemini", "m", StatusSuccess)))

	c.Observe(client.Event{Type: client.EventRequestStart, Provider: ai.ProviderGemini, Model: "m"})
	c.Observe(client.Event{
		Type:     client.EventRequestError,
		Provider: ai.ProviderGemini,
		Model:    "m",
		Error:    &ai.AllCredentialsFailedError{Attempts: 3, Last: errors.New("boom")},
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("gemini", "m", StatusAllKeysFailed)))

	c.Observe(client.Event{
		Type:     client.EventRequestError,
		Provider: ai.ProviderGemini,
		Model:    "m",
		Error:    ai.NewConfigurationError(ai.ErrNoCredentials.Error()),
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues("gemini", "m", StatusUnconfigured)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.requestDuration))
}

type inflightCounts map[ai.Provider]int64

func (f inflightCounts) InFlight(p ai.Provider) int64 { return f[p] }

func TestCollectorTrackInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("test", reg, zap.NewNop())
	counts := inflightCounts{ai.ProviderOpenAI: 2}
	c.TrackInFlight(counts)

	expected := `
# HELP test_inflight_requests Generate-content operations in progress
# TYPE test_inflight_requests gauge
test_inflight_requests{provider="gemini"} 0
test_inflight_requests{provider="openai"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_inflight_requests"))

	// Read at scrape time, not from events.
	counts[ai.ProviderOpenAI] = 0
	counts[ai.ProviderGemini] = 1
	c.Observe(client.Event{Type: client.EventRequestComplete, Provider: ai.ProviderGemini, Model: "m"})
	expected = `
# HELP test_inflight_requests Generate-content operations in progress
# TYPE test_inflight_requests gauge
test_inflight_requests{provider="gemini"} 1
test_inflight_requests{provider="openai"} 0
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_inflight_requests"))
}

func TestCollectorRetryEvents(t *testing.T) {
	c := newTestCollector()

	c.Observe(retryEvent(client.RetryEvent{Type: client.RetryEventAttemptStart}))
	c.Observe(retryEvent(client.RetryEvent{Type: client.RetryEventAttemptFailed, RateLimited: true}))
	c.Observe(retryEvent(client.RetryEvent{Type: client.RetryEventBackoff, Delay: 2 * time.Second}))
	c.Observe(retryEvent(client.RetryEvent{Type: client.RetryEventAttemptStart}))
	c.Observe(retryEvent(client.RetryEvent{Type: client.RetryEventAttemptFailed}))
	c.Observe(retryEvent(client.RetryEvent{Type: client.RetryEventExhausted}))
	c.Observe(client.Event{Type: client.EventRetry, Provider: ai.ProviderOpenAI})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("openai")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failuresTotal.WithLabelValues("openai", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failuresTotal.WithLabelValues("openai", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.exhaustedTotal.WithLabelValues("openai")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.backoffSeconds))
}

func TestCollectorConsume(t *testing.T) {
	c := newTestCollector()
	events := make(chan client.Event, 4)
	events <- retryEvent(client.RetryEvent{Type: client.RetryEventAttemptStart})
	events <- retryEvent(client.RetryEvent{Type: client.RetryEventAttemptStart})
	close(events)

	c.Consume(context.Background(), events)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.attemptsTotal.WithLabelValues("openai")))
}

func TestCollectorConsumeStopsOnCancel(t *testing.T) {
	c := newTestCollector()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		c.Consume(ctx, make(chan client.Event))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}
}

func TestNewCollectorDefaults(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("", reg, nil)
	c.Observe(client.Event{Type: client.EventRequestComplete, Provider: ai.ProviderOpenAI, Model: "x"})

	families, err := reg.Gather()
	assert.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "relay_requests_total")
}
