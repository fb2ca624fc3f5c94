package media

import (
	"context"
	"time"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/logutils"
)

// VariantResolver builds the quality ladder for an extractor-backed link.
type VariantResolver struct {
	extractor domain.Extractor
	estimator *SizeEstimator
	timeout   time.Duration
}

func NewVariantResolver(extractor domain.Extractor, estimator *SizeEstimator, timeout time.Duration) *VariantResolver {
	if estimator == nil {
		estimator = NewSizeEstimator()
	}
	return &VariantResolver{extractor: extractor, estimator: estimator, timeout: timeout}
}

// Resolve queries the extractor once and returns the full ladder. Every tier
// carries a size; missing data is filled by the estimator.
func (r *VariantResolver) Resolve(ctx context.Context, link domain.Link) (*domain.ResolvedMedia, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	meta, err := r.extractor.GetMetadata(ctx, link.URL)
	if err != nil {
		logutils.Log.WithError(err).WithField("url", link.URL).Warn("Failed to retrieve media metadata")
		return nil, tmserrors.WrapDomainError(err, tmserrors.ErrorTypeMetadataUnavailable, "extractor_failed",
			"cannot retrieve media metadata").WithUserMessage("error.metadata.unavailable")
	}
	if meta == nil {
		meta = &domain.MediaMetadata{}
	}

	resolved := &domain.ResolvedMedia{
		Title:           meta.Title,
		DurationSeconds: meta.DurationSeconds,
		Variants:        r.BuildLadder(meta),
	}

	logutils.Log.WithFields(map[string]any{
		"url":       link.URL,
		"title":     meta.Title,
		"duration":  meta.DurationSeconds,
		"encodings": len(meta.Encodings),
	}).Debug("Resolved variant ladder")
	return resolved, nil
}

// BuildLadder maps raw encodings onto the tier ladder.
func (r *VariantResolver) BuildLadder(meta *domain.MediaMetadata) []domain.Variant {
	perTier := make(map[domain.TierKey]domain.RawEncoding)
	var (
		maxHeight     int
		largestPlayed domain.RawEncoding
		topVideo      domain.RawEncoding
		bestAudio     domain.RawEncoding
		haveAudio     bool
	)

	for _, enc := range meta.Encodings {
		if enc.AudioOnly() {
			if !haveAudio || enc.AudioBitrate > bestAudio.AudioBitrate {
				bestAudio, haveAudio = enc, true
			}
			continue
		}
		if enc.HasVideo && (enc.Height > topVideo.Height ||
			(enc.Height == topVideo.Height && enc.DeclaredBytes > topVideo.DeclaredBytes)) {
			topVideo = enc
		}
		if !enc.Playable() {
			continue
		}
		if r.estimator.Plausible(enc.DeclaredBytes) && enc.DeclaredBytes > largestPlayed.DeclaredBytes {
			largestPlayed = enc
		}
		if enc.Height > maxHeight {
			maxHeight = enc.Height
		}
		tier, ok := TierForHeight(enc.Height)
		if !ok || !r.estimator.Plausible(enc.DeclaredBytes) {
			continue
		}
		// smaller file wins within a tier
		if current, seen := perTier[tier]; !seen || enc.DeclaredBytes < current.DeclaredBytes {
			perTier[tier] = enc
		}
	}

	// best is pinned only when a playable encoding reaches the top picture
	// height; otherwise the extractor has to merge separate streams
	var mergedBest int64
	if maxHeight >= topVideo.Height {
		if top, ok := TierForHeight(maxHeight); ok {
			if enc, captured := perTier[top]; captured {
				perTier[domain.TierBest] = enc
			}
		}
		if _, ok := perTier[domain.TierBest]; !ok && largestPlayed.DeclaredBytes > 0 {
			perTier[domain.TierBest] = largestPlayed
		}
	} else if haveAudio && r.estimator.Plausible(topVideo.DeclaredBytes) && r.estimator.Plausible(bestAudio.DeclaredBytes) {
		mergedBest = topVideo.DeclaredBytes + bestAudio.DeclaredBytes
	}
	if haveAudio {
		perTier[domain.TierAudio] = bestAudio
	}

	variants := make([]domain.Variant, 0, len(Ladder))
	for _, tier := range Ladder {
		estimated := r.estimator.Estimate(meta.DurationSeconds, tier)
		enc, pinned := perTier[tier]
		declared := enc.DeclaredBytes
		if tier == domain.TierBest && !pinned {
			declared = mergedBest
		}
		size, confidence := r.estimator.Reconcile(declared, estimated)
		selector := GenericSelector(tier)
		if pinned {
			selector = PinnedSelector(tier, enc.ID)
		}
		variants = append(variants, domain.Variant{
			Tier:           tier,
			FormatSelector: selector,
			EstimatedBytes: size,
			Confidence:     confidence,
		})
	}
	return variants
}
