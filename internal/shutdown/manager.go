package shutdown

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/hashicorp/go-multierror"
)

// Manager stops registered services one by one, in registration order, under
// a shared deadline. Register producers before the resources they use.
type Manager struct {
	services []domain.GracefulShutdownInterface
	timeout  time.Duration
	mu       sync.Mutex
	once     sync.Once
	err      error
}

func NewManager(timeout time.Duration) *Manager {
	return &Manager{timeout: timeout}
}

func (m *Manager) Register(service domain.GracefulShutdownInterface) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.services = append(m.services, service)
	logutils.Log.WithField("service", service.Name()).Debug("Service registered for graceful shutdown")
}

// WaitForShutdown blocks until a termination signal or ctx is done, then shuts down.
func (m *Manager) WaitForShutdown(ctx context.Context) error {
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	<-sigCtx.Done()
	logutils.Log.Info("Received shutdown signal")
	return m.Shutdown()
}

// Shutdown runs once; later calls return the first result.
func (m *Manager) Shutdown() error {
	m.once.Do(func() {
		m.err = m.shutdown()
	})
	return m.err
}

func (m *Manager) shutdown() error {
	logutils.Log.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	services := append([]domain.GracefulShutdownInterface(nil), m.services...)
	m.mu.Unlock()

	var result *multierror.Error
	for _, svc := range services {
		entry := logutils.Log.WithField("service", svc.Name())
		entry.Info("Shutting down service")
		if err := svc.Shutdown(ctx); err != nil {
			entry.WithError(err).Error("Error during service shutdown")
			result = multierror.Append(result, fmt.Errorf("service %s shutdown failed: %w", svc.Name(), err))
			continue
		}
		entry.Info("Service shutdown completed")
	}

	if err := result.ErrorOrNil(); err != nil {
		logutils.Log.WithField("error_count", len(result.Errors)).Error("Some services failed to shutdown gracefully")
		return err
	}
	logutils.Log.Info("Graceful shutdown completed successfully")
	return nil
}

// Func adapts a plain function to the shutdown interface.
type Func struct {
	name string
	fn   func(ctx context.Context) error
}

func NewFunc(name string, fn func(ctx context.Context) error) *Func {
	return &Func{name: name, fn: fn}
}

func (f *Func) Shutdown(ctx context.Context) error {
	return f.fn(ctx)
}

func (f *Func) Name() string {
	return f.name
}
