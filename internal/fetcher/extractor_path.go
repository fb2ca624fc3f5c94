package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/google/uuid"
)

// partialSuffixes identify files an extractor leaves behind mid-download.
var partialSuffixes = []string{".part", ".ytdl", ".temp", ".tmp"}

func (f *Fetcher) fetchWithExtractor(ctx context.Context, req Request) (*domain.TransferResult, error) {
	if f.extractor == nil {
		return nil, tmserrors.NewDomainError(tmserrors.ErrorTypeUnexpected, "no_extractor", "no extractor configured")
	}
	variant := req.Variant
	if variant == nil {
		variant = f.defaultVariant()
	}
	if variant.Confidence == domain.SizeDeclared && variant.EstimatedBytes > f.opts.SizeCeiling {
		return nil, f.tooLarge(variant.EstimatedBytes, "declared")
	}
	if err := f.ensureSpace(variant.EstimatedBytes); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(f.opts.TempDir, "fetch-"+uuid.NewString()[:8]+"-*")
	if err != nil {
		return nil, unexpected(err, "cannot create temporary directory")
	}
	// The open handle outlives the directory entry.
	defer removeAll(dir)

	if f.opts.ExtractorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.ExtractorTimeout)
		defer cancel()
	}

	logutils.Log.WithFields(map[string]any{
		"url":      req.Link.URL,
		"selector": variant.FormatSelector,
		"dir":      dir,
	}).Debug("Starting extractor download")

	written, err := f.extractor.FetchToDirectory(ctx, req.Link.URL, variant.FormatSelector, dir)
	if err != nil {
		return nil, transferError(ctx, err, "extractor download failed")
	}

	path, err := locateOutput(dir, written)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, unexpected(err, "cannot open extractor output")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, unexpected(err, "cannot stat extractor output")
	}
	if info.Size() > f.opts.SizeCeiling {
		file.Close()
		return nil, f.tooLarge(info.Size(), "after_download")
	}

	title := req.Title
	return &domain.TransferResult{
		Content:      file,
		SizeInBytes:  info.Size(),
		Filename:     ExtractorFilename(title, filepath.Ext(path)),
		DisplayTitle: title,
	}, nil
}

// locateOutput trusts the reported path only if it names a finished file in
// dir, and otherwise takes the first finished file found there.
func locateOutput(dir, reported string) (string, error) {
	if reported != "" {
		reported = strings.TrimSpace(reported)
		if !filepath.IsAbs(reported) {
			reported = filepath.Join(dir, reported)
		}
		if filepath.Dir(reported) == filepath.Clean(dir) && !isPartial(reported) {
			if info, err := os.Stat(reported); err == nil && info.Mode().IsRegular() {
				return reported, nil
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", unexpected(err, "cannot scan extractor output directory")
	}
	for _, e := range entries {
		if !e.Type().IsRegular() || isPartial(e.Name()) {
			continue
		}
		if reported != "" {
			logutils.Log.WithFields(map[string]any{
				"reported": filepath.Base(reported),
				"found":    e.Name(),
			}).Debug("Extractor output name differs from the reported one")
		}
		return filepath.Join(dir, e.Name()), nil
	}
	return "", tmserrors.NewDomainError(tmserrors.ErrorTypeSourceUnavailable, "no_output",
		"extractor finished without producing a file").WithUserMessage("error.fetch.unavailable")
}

func isPartial(name string) bool {
	lower := strings.ToLower(filepath.Base(name))
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	// fragments (x.part-Frag3) and merge intermediates (x.temp.mp4)
	return strings.Contains(lower, ".part-frag") || strings.Contains(lower, ".temp.")
}
