package media

import (
	"fmt"
	"strconv"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
)

// Ladder is the fixed order in which tiers are offered.
var Ladder = []domain.TierKey{
	domain.Tier144,
	domain.Tier240,
	domain.Tier360,
	domain.Tier480,
	domain.Tier720,
	domain.Tier1080,
	domain.Tier1440,
	domain.Tier2160,
	domain.TierBest,
	domain.TierAudio,
}

// heightTiers are the tiers bounded by a picture height, ascending.
var heightTiers = Ladder[:8]

const maxTierHeight = 2160

// IsValidTier reports whether tier belongs to the ladder.
func IsValidTier(tier domain.TierKey) bool {
	for _, t := range Ladder {
		if t == tier {
			return true
		}
	}
	return false
}

// TierHeight returns the height ceiling of a height tier, or 0 for best and audio.
func TierHeight(tier domain.TierKey) int {
	h, err := strconv.Atoi(string(tier))
	if err != nil {
		return 0
	}
	return h
}

// TierForHeight buckets height into the tier whose ceiling is the smallest
// value not below it. Heights above 2160 fit no tier.
func TierForHeight(height int) (domain.TierKey, bool) {
	if height <= 0 {
		return "", false
	}
	for _, tier := range heightTiers {
		if height <= TierHeight(tier) {
			return tier, true
		}
	}
	return "", false
}

// GenericSelector is the format selector used when no specific encoding is pinned.
func GenericSelector(tier domain.TierKey) string {
	switch tier {
	case domain.TierBest:
		return "bestvideo+bestaudio/best"
	case domain.TierAudio:
		return "bestaudio"
	default:
		h := TierHeight(tier)
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", h, h)
	}
}

// PinnedSelector prefers the encoding id and falls back to the generic selector.
func PinnedSelector(tier domain.TierKey, encodingID string) string {
	if encodingID == "" {
		return GenericSelector(tier)
	}
	return encodingID + "/" + GenericSelector(tier)
}

// TierLabel is the human-readable tier name used in captions and menus.
func TierLabel(tier domain.TierKey) string {
	switch tier {
	case domain.TierBest:
		return "Best"
	case domain.TierAudio:
		return "Audio"
	default:
		return string(tier) + "p"
	}
}
