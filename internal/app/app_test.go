package app

import (
	"testing"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/config"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/extractor/youtube"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/extractor/ytdlp"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFetchStackPicksBackend(t *testing.T) {
	tests := []struct {
		backend string
		check   func(t *testing.T, stack *FetchStack)
	}{
		{config.BackendYTDLP, func(t *testing.T, stack *FetchStack) {
			assert.IsType(t, &ytdlp.Extractor{}, stack.Extractor)
		}},
		{config.BackendYouTube, func(t *testing.T, stack *FetchStack) {
			assert.IsType(t, &youtube.Extractor{}, stack.Extractor)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := testutils.TestConfig(testutils.TempDir(t))
			cfg.ExtractorSettings.Backend = tt.backend
			stack := NewFetchStack(cfg)
			tt.check(t, stack)
			assert.Equal(t, cfg.FetchSettings.SizeCeiling, stack.Fetcher.SizeCeiling())
		})
	}
}

func TestNewFetchStackHonoursExtraHosts(t *testing.T) {
	cfg := testutils.TestConfig(testutils.TempDir(t))
	cfg.ExtraVideoHosts = []string{"media.example.org"}
	stack := NewFetchStack(cfg)
	assert.True(t, stack.Classifier.IsVideoHost("media.example.org"))
}

func TestNewRequiresBotToken(t *testing.T) {
	cfg := testutils.TestConfig(testutils.TempDir(t))
	cfg.BotToken = ""

	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, tmserrors.ErrorTypeConfig, tmserrors.TypeOf(err))
}
