package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/google/uuid"
)

func (f *Fetcher) fetchDirect(ctx context.Context, req Request) (*domain.TransferResult, error) {
	if f.source == nil {
		return nil, tmserrors.NewDomainError(tmserrors.ErrorTypeUnexpected, "no_source", "no HTTP source configured")
	}
	if f.opts.TransferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.TransferTimeout)
		defer cancel()
	}

	if err := f.probe(ctx, req.Link.URL); err != nil {
		return nil, err
	}

	resp, err := f.source.StreamGet(ctx, req.Link.URL)
	if err != nil {
		return nil, transferError(ctx, err, "request failed")
	}
	defer resp.Body.Close()

	if resp.Status < http.StatusOK || resp.Status >= http.StatusMultipleChoices {
		return nil, sourceUnavailable("bad_status", "source answered "+http.StatusText(resp.Status), resp.Status)
	}
	if resp.ContentLength > f.opts.SizeCeiling {
		return nil, f.tooLarge(resp.ContentLength, "declared")
	}
	if err := f.ensureSpace(resp.ContentLength); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(f.opts.TempDir, "direct-"+uuid.NewString()[:8]+"-*.part")
	if err != nil {
		return nil, unexpected(err, "cannot create temporary file")
	}
	delivered := false
	defer func() {
		if !delivered {
			tmp.Close()
			removeAll(tmp.Name())
		}
	}()

	total, err := f.copyBounded(ctx, tmp, resp.Body, resp.ContentLength, req.Progress)
	if err != nil {
		return nil, err
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, unexpected(err, "cannot rewind temporary file")
	}
	// Unlink now; the handle keeps the data readable until Close.
	if err := os.Remove(tmp.Name()); err != nil {
		return nil, unexpected(err, "cannot unlink temporary file")
	}
	delivered = true

	filename := DirectFilename(resp.HeaderValue("Content-Disposition"), req.Link.URL, resp.HeaderValue("Content-Type"))
	return &domain.TransferResult{
		Content:      tmp,
		SizeInBytes:  total,
		Filename:     filename,
		DisplayTitle: filename,
	}, nil
}

// probe rejects obviously unavailable or oversized resources. Its own
// failures are logged and ignored.
func (f *Fetcher) probe(ctx context.Context, rawURL string) error {
	result, err := f.source.Probe(ctx, rawURL)
	if err != nil {
		logutils.Log.WithError(err).WithField("url", rawURL).Debug("Probe failed, continuing with GET")
		return nil
	}
	switch result.Status {
	case http.StatusNotFound, http.StatusGone:
		return sourceUnavailable("gone", "source reports the resource missing", result.Status)
	}
	if result.Status >= http.StatusOK && result.Status < http.StatusMultipleChoices &&
		result.DeclaredSize > f.opts.SizeCeiling {
		return f.tooLarge(result.DeclaredSize, "probe")
	}
	return nil
}

// copyBounded streams body into dst in ChunkSize pieces and stops before
// writing the chunk that would cross the ceiling.
func (f *Fetcher) copyBounded(ctx context.Context, dst io.Writer, body io.Reader, expected int64, progress func(int64, int64)) (int64, error) {
	buf := make([]byte, f.opts.ChunkSize)
	var total int64
	for {
		n, readErr := io.ReadFull(body, buf)
		if n > 0 {
			if total+int64(n) > f.opts.SizeCeiling {
				return total, f.tooLarge(total+int64(n), "mid_stream")
			}
			if _, err := dst.Write(buf[:n]); err != nil {
				return total, unexpected(err, "cannot write temporary file")
			}
			total += int64(n)
			if progress != nil {
				progress(total, expected)
			}
		}
		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF), errors.Is(readErr, io.ErrUnexpectedEOF):
			if expected >= 0 && total < expected {
				return total, tmserrors.NewDomainError(tmserrors.ErrorTypeNetworkFailure, "truncated",
					"connection closed before the body was complete").WithUserMessage("error.fetch.network")
			}
			return total, nil
		default:
			return total, transferError(ctx, readErr, "transfer interrupted")
		}
	}
}
