package domain

import (
	"context"
	"io"
	"time"
)

// Extractor is the video-extraction collaborator.
type Extractor interface {
	GetMetadata(ctx context.Context, url string) (*MediaMetadata, error)
	// FetchToDirectory decodes the selected encoding into destDir and returns
	// the path it believes it wrote. The path may be wrong; callers verify it.
	FetchToDirectory(ctx context.Context, url, formatSelector, destDir string) (string, error)
}

// HTTPSource is the generic HTTP collaborator used for direct links.
type HTTPSource interface {
	Probe(ctx context.Context, url string) (*ProbeResult, error)
	StreamGet(ctx context.Context, url string) (*StreamResponse, error)
}

// Messenger is the outbound side of the chat front end.
type Messenger interface {
	SendText(actorID int64, text string) error
	SendFile(actorID int64, content io.Reader, size int64, filename, caption string) error
}

// TransferHistory persists terminal outcomes.
type TransferHistory interface {
	Record(ctx context.Context, rec TransferRecord) error
	Stats(ctx context.Context, actorID int64) (TransferStats, error)
	Close() error
}

// MetricsInterface collects in-process counters and durations.
type MetricsInterface interface {
	IncrementCounter(name string, labels map[string]string)
	RecordDuration(name string, duration time.Duration, labels map[string]string)
}

// RateLimiterInterface limits how often an actor may submit links.
type RateLimiterInterface interface {
	Allow(userID int64) bool
	Reset(userID int64)
}

// TimeProvider abstracts the clock for expiry checks.
type TimeProvider interface {
	Now() time.Time
}

// GracefulShutdownInterface is implemented by services stopped on exit.
type GracefulShutdownInterface interface {
	Shutdown(ctx context.Context) error
	Name() string
}
