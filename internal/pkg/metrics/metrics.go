package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
)

// InMemoryMetrics keeps counters and duration summaries for the process lifetime.
type InMemoryMetrics struct {
	mu        sync.RWMutex
	counters  map[string]*Counter
	durations map[string]*Duration
}

// Counter is a monotonically increasing value for one label set.
type Counter struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Value  int64             `json:"value"`
}

// Duration summarises recorded durations for one label set.
type Duration struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
	Count  int64             `json:"count"`
	Total  time.Duration     `json:"total"`
	Max    time.Duration     `json:"max"`
}

// Mean returns the average duration, zero when nothing was recorded.
func (d Duration) Mean() time.Duration {
	if d.Count == 0 {
		return 0
	}
	return d.Total / time.Duration(d.Count)
}

var _ domain.MetricsInterface = (*InMemoryMetrics)(nil)

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:  make(map[string]*Counter),
		durations: make(map[string]*Duration),
	}
}

func (m *InMemoryMetrics) IncrementCounter(name string, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(name, labels)
	counter, exists := m.counters[key]
	if !exists {
		counter = &Counter{Name: name, Labels: copyLabels(labels)}
		m.counters[key] = counter
	}
	counter.Value++

	logutils.Log.WithFields(map[string]any{
		"metric": name,
		"labels": labels,
		"value":  counter.Value,
	}).Debug("Counter incremented")
}

func (m *InMemoryMetrics) RecordDuration(name string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := buildKey(name, labels)
	d, exists := m.durations[key]
	if !exists {
		d = &Duration{Name: name, Labels: copyLabels(labels)}
		m.durations[key] = d
	}
	d.Count++
	d.Total += duration
	if duration > d.Max {
		d.Max = duration
	}
}

// Counters returns a copy of every counter ordered by key.
func (m *InMemoryMetrics) Counters() []Counter {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := sortedKeys(m.counters)
	result := make([]Counter, 0, len(keys))
	for _, k := range keys {
		c := *m.counters[k]
		c.Labels = copyLabels(c.Labels)
		result = append(result, c)
	}
	return result
}

// Durations returns a copy of every duration summary ordered by key.
func (m *InMemoryMetrics) Durations() []Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := sortedKeys(m.durations)
	result := make([]Duration, 0, len(keys))
	for _, k := range keys {
		d := *m.durations[k]
		d.Labels = copyLabels(d.Labels)
		result = append(result, d)
	}
	return result
}

// CounterValue returns the value of one counter, zero if it was never incremented.
func (m *InMemoryMetrics) CounterValue(name string, labels map[string]string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.counters[buildKey(name, labels)]; ok {
		return c.Value
	}
	return 0
}

// buildKey is name followed by labels sorted by key.
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(name)
	for _, k := range sortedKeys(labels) {
		b.WriteString(":" + k + "=" + labels[k])
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	result := make(map[string]string, len(labels))
	for k, v := range labels {
		result[k] = v
	}
	return result
}
