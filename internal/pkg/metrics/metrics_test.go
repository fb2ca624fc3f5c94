package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreKeyedByLabels(t *testing.T) {
	m := NewInMemoryMetrics()
	m.IncrementCounter("fetch_outcomes", map[string]string{"outcome": "delivered"})
	m.IncrementCounter("fetch_outcomes", map[string]string{"outcome": "delivered"})
	m.IncrementCounter("fetch_outcomes", map[string]string{"outcome": "too_large"})

	assert.Equal(t, int64(2), m.CounterValue("fetch_outcomes", map[string]string{"outcome": "delivered"}))
	assert.Equal(t, int64(1), m.CounterValue("fetch_outcomes", map[string]string{"outcome": "too_large"}))
	assert.Zero(t, m.CounterValue("fetch_outcomes", map[string]string{"outcome": "timeout"}))

	counters := m.Counters()
	require.Len(t, counters, 2)
	assert.Equal(t, "delivered", counters[0].Labels["outcome"])
	assert.Equal(t, "too_large", counters[1].Labels["outcome"])
}

func TestLabelOrderDoesNotMatter(t *testing.T) {
	m := NewInMemoryMetrics()
	for _i := 0; _i < 20; _i++ {
		m.IncrementCounter("c", map[string]string{"a": "1", "b": "2", "c": "3"})
	}
	assert.Len(t, m.Counters(), 1)
	assert.Equal(t, int64(20), m.CounterValue("c", map[string]string{"c": "3", "b": "2", "a": "1"}))
}

func TestDurationSummary(t *testing.T) {
	m := NewInMemoryMetrics()
	labels := map[string]string{"path": "direct"}
	m.RecordDuration("fetch_duration", time.Second, labels)
	m.RecordDuration("fetch_duration", 3*time.Second, labels)

	durations := m.Durations()
	require.Len(t, durations, 1)
	d := durations[0]
	assert.Equal(t, int64(2), d.Count)
	assert.Equal(t, 3*time.Second, d.Max)
	assert.Equal(t, 2*time.Second, d.Mean())
	assert.Zero(t, Duration{}.Mean())
}

func TestConcurrentIncrements(t *testing.T) {
	m := NewInMemoryMetrics()
	var wg sync.WaitGroup
	for _i := 0; _i < 50; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter("n", nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.CounterValue("n", nil))
}
