package database

import (
	"context"
	"strings"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
)

// NewHistory opens the sqlite history at path, or a no-op history when path is empty.
func NewHistory(path string) (domain.TransferHistory, error) {
	if strings.TrimSpace(path) == "" {
		logutils.Log.Info("Transfer history disabled")
		return NoOpHistory{}, nil
	}
	history, err := NewSQLiteHistory(path)
	if err != nil {
		logutils.Log.WithError(err).Error("Failed to initialize the database")
		return nil, err
	}
	return history, nil
}

// NoOpHistory drops every record.
type NoOpHistory struct{}

func (NoOpHistory) Record(context.Context, domain.TransferRecord) error { return nil }

func (NoOpHistory) Stats(context.Context, int64) (domain.TransferStats, error) {
	return domain.TransferStats{}, nil
}

func (NoOpHistory) Close() error { return nil }
