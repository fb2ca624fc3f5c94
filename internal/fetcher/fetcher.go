package fetcher

import (
	"context"
	"os"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
)

// Options bound every transfer.
type Options struct {
	SizeCeiling      int64
	ChunkSize        int
	TempDir          string
	TransferTimeout  time.Duration
	ExtractorTimeout time.Duration
}

// Request is one fetch. Variant is nil for direct links.
type Request struct {
	Link    domain.Link
	Variant *domain.Variant
	Title   string
	// Progress, if set, is called after every chunk with the bytes written so
	// far and the expected total (-1 when unknown).
	Progress func(written, total int64)
}

// Fetcher retrieves a link into a transient file while enforcing the size ceiling.
type Fetcher struct {
	extractor domain.Extractor
	source    domain.HTTPSource
	opts      Options
	freeSpace func(dir string) (uint64, error)
}

func New(extractor domain.Extractor, source domain.HTTPSource, opts Options) *Fetcher {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 512 * 1024
	}
	return &Fetcher{extractor: extractor, source: source, opts: opts, freeSpace: diskFree}
}

func (f *Fetcher) SizeCeiling() int64 {
	return f.opts.SizeCeiling
}

// Fetch runs the extractor or direct path. On success the caller owns
// result.Content and must close it; no temp entry is left on disk either way.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*domain.TransferResult, error) {
	start := time.Now()
	var (
		result *domain.TransferResult
		err    error
	)
	if req.Link.Kind == domain.LinkExtractor {
		result, err = f.fetchWithExtractor(ctx, req)
	} else {
		result, err = f.fetchDirect(ctx, req)
	}

	entry := logutils.Log.WithFields(map[string]any{
		"url":      req.Link.URL,
		"kind":     req.Link.Kind,
		"duration": time.Since(start).Round(time.Millisecond),
	})
	if err != nil {
		entry.WithError(err).WithField("error_type", tmserrors.TypeOf(err)).Warn("Fetch failed")
		return nil, err
	}
	entry.WithFields(map[string]any{
		"filename": result.Filename,
		"size":     humanize.IBytes(uint64(result.SizeInBytes)),
	}).Info("Fetch finished")
	return result, nil
}

func (f *Fetcher) defaultVariant() *domain.Variant {
	return &domain.Variant{
		Tier:           domain.TierBest,
		FormatSelector: media.GenericSelector(domain.TierBest),
		Confidence:     domain.SizeEstimated,
	}
}

func (f *Fetcher) tooLarge(size int64, stage string) error {
	return tmserrors.NewDomainError(tmserrors.ErrorTypeTooLarge, stage, "transfer exceeds the size ceiling").
		WithDetails(map[string]any{
			"size":    size,
			"ceiling": f.opts.SizeCeiling,
		}).
		WithUserMessage("error.fetch.too_large")
}

func sourceUnavailable(code, message string, status int) error {
	return tmserrors.NewDomainError(tmserrors.ErrorTypeSourceUnavailable, code, message).
		WithDetails(map[string]any{"status": status}).
		WithUserMessage("error.fetch.unavailable")
}

func unexpected(err error, message string) error {
	return tmserrors.WrapDomainError(err, tmserrors.ErrorTypeUnexpected, "local_io", message).
		WithUserMessage("error.fetch.unexpected")
}

// transferError classifies err, treating an expired ctx as a timeout whatever
// the transport reported.
func transferError(ctx context.Context, err error, message string) error {
	if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
		return tmserrors.FromTransport(ctxErr, message)
	}
	return tmserrors.FromTransport(err, message)
}

// removeAll deletes temp paths and logs, never returns, cleanup failures.
func removeAll(paths ...string) {
	var result *multierror.Error
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		logutils.Log.WithError(err).Error("Failed to remove temporary files")
	}
}
