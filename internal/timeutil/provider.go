package timeutil

import (
	"sync"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
)

// SystemTimeProvider reads the wall clock.
type SystemTimeProvider struct{}

func NewSystemTimeProvider() domain.TimeProvider {
	return &SystemTimeProvider{}
}

func (*SystemTimeProvider) Now() time.Time {
	return time.Now()
}

// MockTimeProvider is a manually advanced clock for tests.
type MockTimeProvider struct {
	mu          sync.RWMutex
	currentTime time.Time
}

func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{currentTime: startTime}
}

func (m *MockTimeProvider) AdvanceTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentTime = m.currentTime.Add(duration)
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentTime
}
