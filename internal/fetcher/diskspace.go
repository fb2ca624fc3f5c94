package fetcher

import (
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
	"github.com/dustin/go-humanize"
)

// ensureSpace fails when TempDir cannot hold expected bytes. The check is
// skipped for unknown sizes and when free space cannot be read.
func (f *Fetcher) ensureSpace(expected int64) error {
	if expected <= 0 || f.freeSpace == nil {
		return nil
	}
	required := min(expected, f.opts.SizeCeiling)
	available, err := f.freeSpace(f.opts.TempDir)
	if err != nil {
		logutils.Log.WithError(err).WithField("dir", f.opts.TempDir).Warn("Failed to get filesystem stats")
		return nil
	}

	logutils.Log.WithFields(map[string]any{
		"required_space":  required,
		"available_space": available,
	}).Debug("Checking available disk space")

	if available >= uint64(required) {
		return nil
	}
	return tmserrors.NewDomainError(tmserrors.ErrorTypeUnexpected, "insufficient_space",
		"not enough free space for "+humanize.Bytes(uint64(required))).
		WithDetails(map[string]any{
			"required":  required,
			"available": available,
			"dir":       f.opts.TempDir,
		}).
		WithUserMessage("error.fetch.unexpected")
}
