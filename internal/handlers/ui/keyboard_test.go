package ui

import (
	"testing"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackRoundTrip(t *testing.T) {
	tier, ok := ParseCallback(CallbackData(domain.Tier1080))
	require.True(t, ok)
	assert.Equal(t, domain.Tier1080, tier)

	_, ok = ParseCallback("delete_movie:1")
	assert.False(t, ok)
}

func TestButtonLabel(t *testing.T) {
	estimated := domain.Variant{Tier: domain.Tier720, EstimatedBytes: 78_643_200, Confidence: domain.SizeEstimated}
	declared := domain.Variant{Tier: domain.TierAudio, EstimatedBytes: 3_400_000, Confidence: domain.SizeDeclared}

	assert.Equal(t, "720p · ≈79 MB", ButtonLabel(estimated, 0))
	assert.Equal(t, "Audio · 3.4 MB", ButtonLabel(declared, 0))
	assert.Equal(t, "720p · ≈79 MB ⚠", ButtonLabel(estimated, 50_000_000))
}

func TestVariantKeyboardLayout(t *testing.T) {
	m := &domain.ResolvedMedia{Variants: []domain.Variant{
		{Tier: domain.Tier360, EstimatedBytes: 1},
		{Tier: domain.Tier720, EstimatedBytes: 2},
		{Tier: domain.TierBest, EstimatedBytes: 3},
	}}

	kb := VariantKeyboard(m, 0)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)
	require.NotNil(t, kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "v:best", *kb.InlineKeyboard[1][0].CallbackData)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3:32", FormatDuration(212.4))
	assert.Equal(t, "1:01:05", FormatDuration(3665))
	assert.Equal(t, "", FormatDuration(0))
}
