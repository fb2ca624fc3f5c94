package media

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mb = 1_000_000

var videoLink = domain.Link{URL: "https://youtu.be/abc", Kind: domain.LinkExtractor}

func resolve(t *testing.T, meta *domain.MediaMetadata) *domain.ResolvedMedia {
	t.Helper()
	r := NewVariantResolver(&testutils.FakeExtractor{Metadata: meta}, nil, time.Second)
	resolved, err := r.Resolve(context.Background(), videoLink)
	require.NoError(t, err)
	return resolved
}

func variant(t *testing.T, m *domain.ResolvedMedia, tier domain.TierKey) domain.Variant {
	t.Helper()
	v, ok := m.Variant(tier)
	require.True(t, ok, "tier %s missing", tier)
	return v
}

func assertFullLadder(t *testing.T, m *domain.ResolvedMedia) {
	t.Helper()
	require.Len(t, m.Variants, len(Ladder))
	for i, v := range m.Variants {
		assert.Equal(t, Ladder[i], v.Tier)
		assert.Positive(t, v.EstimatedBytes, "tier %s has no size", v.Tier)
		assert.NotEmpty(t, v.FormatSelector)
	}
}

func TestResolveWithoutFormatsOrDuration(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{Title: "empty"})

	assertFullLadder(t, resolved)
	e := NewSizeEstimator()
	for _, v := range resolved.Variants {
		assert.Equal(t, domain.SizeEstimated, v.Confidence)
		assert.Equal(t, e.Estimate(DefaultDurationSeconds, v.Tier), v.EstimatedBytes)
		assert.Equal(t, GenericSelector(v.Tier), v.FormatSelector)
	}
}

func TestResolveNilMetadata(t *testing.T) {
	resolved := resolve(t, nil)
	assertFullLadder(t, resolved)
}

func TestResolveDurationOnly(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{Title: "talk", DurationSeconds: 600})

	assertFullLadder(t, resolved)
	v := variant(t, resolved, domain.Tier720)
	assert.Equal(t, int64(78643200), v.EstimatedBytes)
	assert.Equal(t, domain.SizeEstimated, v.Confidence)
}

func TestResolvePrefersSmallerFileWithinTier(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 300,
		Encodings: []domain.RawEncoding{
			{ID: "big", Height: 480, HasVideo: true, HasAudio: true, DeclaredBytes: 25 * mb},
			{ID: "small", Height: 432, HasVideo: true, HasAudio: true, DeclaredBytes: 10 * mb},
		},
	})

	v := variant(t, resolved, domain.Tier480)
	assert.Equal(t, int64(10*mb), v.EstimatedBytes)
	assert.Equal(t, domain.SizeDeclared, v.Confidence)
	assert.Equal(t, "small/"+GenericSelector(domain.Tier480), v.FormatSelector)
}

func TestResolveIgnoresNonPlayableEncodings(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 60,
		Encodings: []domain.RawEncoding{
			{ID: "video-only", Height: 720, HasVideo: true, DeclaredBytes: 3 * mb},
			{ID: "no-height", HasVideo: true, HasAudio: true, DeclaredBytes: 4 * mb},
		},
	})

	v := variant(t, resolved, domain.Tier720)
	assert.Equal(t, domain.SizeEstimated, v.Confidence)
	assert.Equal(t, GenericSelector(domain.Tier720), v.FormatSelector)

	// a taller video-only stream exists, so best is not pinned to the playable one
	best := variant(t, resolved, domain.TierBest)
	assert.Equal(t, domain.SizeEstimated, best.Confidence)
	assert.Equal(t, GenericSelector(domain.TierBest), best.FormatSelector)
}

func TestResolvePlayableWithoutHeightInformsBest(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 60,
		Encodings: []domain.RawEncoding{
			{ID: "no-height", HasVideo: true, HasAudio: true, DeclaredBytes: 4 * mb},
		},
	})

	best := variant(t, resolved, domain.TierBest)
	assert.Equal(t, int64(4*mb), best.EstimatedBytes)
	assert.Equal(t, "no-height/"+GenericSelector(domain.TierBest), best.FormatSelector)
}

func TestResolveBestMergesWhenTopStreamIsVideoOnly(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 240,
		Encodings: []domain.RawEncoding{
			{ID: "18", Height: 360, HasVideo: true, HasAudio: true, DeclaredBytes: 30 * mb},
			{ID: "137", Height: 1080, HasVideo: true, DeclaredBytes: 120 * mb},
			{ID: "248", Height: 1080, HasVideo: true, DeclaredBytes: 100 * mb},
			{ID: "140", HasAudio: true, AudioBitrate: 128, DeclaredBytes: 4 * mb},
		},
	})

	assert.Equal(t, "18/"+GenericSelector(domain.Tier360), variant(t, resolved, domain.Tier360).FormatSelector)

	best := variant(t, resolved, domain.TierBest)
	assert.Equal(t, GenericSelector(domain.TierBest), best.FormatSelector)
	assert.Equal(t, int64(124*mb), best.EstimatedBytes)
	assert.Equal(t, domain.SizeDeclared, best.Confidence)
	assert.Greater(t, best.EstimatedBytes, variant(t, resolved, domain.Tier360).EstimatedBytes)
}

func TestResolveBestMergedWithoutSizesIsEstimated(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 240,
		Encodings: []domain.RawEncoding{
			{ID: "18", Height: 360, HasVideo: true, HasAudio: true, DeclaredBytes: 30 * mb},
			{ID: "137", Height: 1080, HasVideo: true},
			{ID: "140", HasAudio: true, AudioBitrate: 128},
		},
	})

	best := variant(t, resolved, domain.TierBest)
	assert.Equal(t, GenericSelector(domain.TierBest), best.FormatSelector)
	assert.Equal(t, domain.SizeEstimated, best.Confidence)
	assert.Equal(t, NewSizeEstimator().Estimate(240, domain.TierBest), best.EstimatedBytes)
}

func TestResolveBestFollowsTopTier(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 120,
		Encodings: []domain.RawEncoding{
			{ID: "18", Height: 360, HasVideo: true, HasAudio: true, DeclaredBytes: 8 * mb},
			{ID: "22", Height: 720, HasVideo: true, HasAudio: true, DeclaredBytes: 20 * mb},
		},
	})

	best := variant(t, resolved, domain.TierBest)
	assert.Equal(t, int64(20*mb), best.EstimatedBytes)
	assert.Equal(t, domain.SizeDeclared, best.Confidence)
	assert.Equal(t, "22/"+GenericSelector(domain.TierBest), best.FormatSelector)
}

func TestResolveBestAbove2160UsesLargestDeclared(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 120,
		Encodings: []domain.RawEncoding{
			{ID: "4k", Height: 2160, HasVideo: true, HasAudio: true, DeclaredBytes: 300 * mb},
			{ID: "8k", Height: 4320, HasVideo: true, HasAudio: true, DeclaredBytes: 900 * mb},
		},
	})

	assert.Equal(t, int64(300*mb), variant(t, resolved, domain.Tier2160).EstimatedBytes)
	best := variant(t, resolved, domain.TierBest)
	assert.Equal(t, int64(900*mb), best.EstimatedBytes)
	assert.Equal(t, "8k/"+GenericSelector(domain.TierBest), best.FormatSelector)
}

func TestResolveAudioPicksHighestBitrate(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 240,
		Encodings: []domain.RawEncoding{
			{ID: "139", HasAudio: true, AudioBitrate: 48, DeclaredBytes: 1 * mb},
			{ID: "251", HasAudio: true, AudioBitrate: 160, DeclaredBytes: 4 * mb},
			{ID: "140", HasAudio: true, AudioBitrate: 128, DeclaredBytes: 3 * mb},
		},
	})

	audio := variant(t, resolved, domain.TierAudio)
	assert.Equal(t, int64(4*mb), audio.EstimatedBytes)
	assert.Equal(t, "251/bestaudio", audio.FormatSelector)
}

func TestResolveImplausibleDeclaredFallsBackToEstimate(t *testing.T) {
	resolved := resolve(t, &domain.MediaMetadata{
		DurationSeconds: 600,
		Encodings: []domain.RawEncoding{
			{ID: "22", Height: 720, HasVideo: true, HasAudio: true, DeclaredBytes: 100},
		},
	})

	v := variant(t, resolved, domain.Tier720)
	assert.Equal(t, int64(78643200), v.EstimatedBytes)
	assert.Equal(t, domain.SizeEstimated, v.Confidence)
}

func TestResolveExtractorFailure(t *testing.T) {
	r := NewVariantResolver(&testutils.FakeExtractor{MetadataErr: errors.New("private video")}, nil, time.Second)

	resolved, err := r.Resolve(context.Background(), videoLink)

	require.Error(t, err)
	assert.Nil(t, resolved)
	assert.True(t, errors.Is(err, tmserrors.ErrMetadataUnavailable))
}

func TestTierForHeight(t *testing.T) {
	tests := []struct {
		height int
		want   domain.TierKey
		ok     bool
	}{
		{0, "", false},
		{100, domain.Tier144, true},
		{144, domain.Tier144, true},
		{145, domain.Tier240, true},
		{1080, domain.Tier1080, true},
		{1081, domain.Tier1440, true},
		{2160, domain.Tier2160, true},
		{2161, "", false},
	}
	for _, tt := range tests {
		got, ok := TierForHeight(tt.height)
		assert.Equal(t, tt.want, got, "height %d", tt.height)
		assert.Equal(t, tt.ok, ok, "height %d", tt.height)
	}
}
