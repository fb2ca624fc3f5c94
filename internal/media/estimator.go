package media

import (
	"math"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
)

const (
	bytesPerMiB = 1 << 20

	// DefaultDurationSeconds stands in for a missing or non-positive duration.
	DefaultDurationSeconds = 180
)

// mibPerMinute is calibrated against typical H.264/AAC uploads.
var mibPerMinute = map[domain.TierKey]float64{
	domain.Tier144:   0.8,
	domain.Tier240:   1.5,
	domain.Tier360:   2.5,
	domain.Tier480:   4.0,
	domain.Tier720:   7.5,
	domain.Tier1080:  13.0,
	domain.Tier1440:  25.0,
	domain.Tier2160:  45.0,
	domain.TierBest:  20.0,
	domain.TierAudio: 1.0,
}

// SizeEstimator turns a duration into a byte count per tier. It never fails.
type SizeEstimator struct {
	rates map[domain.TierKey]float64
	floor int64
}

func NewSizeEstimator() *SizeEstimator {
	return &SizeEstimator{
		rates: mibPerMinute,
		// one second of the lowest tier
		floor: int64(mibPerMinute[domain.Tier144] * bytesPerMiB / 60),
	}
}

// Estimate returns the expected size of durationSeconds of tier.
// Unknown tiers use the best-tier rate.
func (e *SizeEstimator) Estimate(durationSeconds float64, tier domain.TierKey) int64 {
	if durationSeconds <= 0 || math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) {
		durationSeconds = DefaultDurationSeconds
	}
	rate, ok := e.rates[tier]
	if !ok {
		rate = e.rates[domain.TierBest]
	}
	bytes := int64(math.Round(rate * durationSeconds / 60 * bytesPerMiB))
	if bytes < 1 {
		return 1
	}
	return bytes
}

// Plausible reports whether a declared size can be trusted.
func (e *SizeEstimator) Plausible(declared int64) bool {
	return declared > 0 && declared >= e.floor
}

// Reconcile prefers a plausible declared size and otherwise keeps the estimate.
// A declared value <= 0 means none was reported.
func (e *SizeEstimator) Reconcile(declared, estimated int64) (int64, domain.SizeConfidence) {
	if e.Plausible(declared) {
		return declared, domain.SizeDeclared
	}
	return estimated, domain.SizeEstimated
}
