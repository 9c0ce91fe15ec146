package calculator

import (
	"time"

	"lapse-report/pkg/models"
)

const day = 24 * time.Hour

// Classify returns the lapse tier and elapsed whole days for a member whose
// last attendance was last (nil: never attended). Tier 0 means not lapsed.
// For a nil last the tier is the highest configured one and days is 0; callers
// use the nil last as the unbounded marker.
func Classify(last *time.Time, now time.Time, thresholds models.ThresholdSet) (tier int, days int, err error) {
	if err := thresholds.Validate(); err != nil {
		return 0, 0, err
	}
	tier, days = classify(last, now, thresholds)
	return tier, days, nil
}

// classify assumes thresholds were validated.
func classify(last *time.Time, now time.Time, thresholds models.ThresholdSet) (int, int) {
	if last == nil {
		return thresholds.Highest(), 0
	}
	days := elapsedDays(*last, now)
	for i := len(thresholds) - 1; i >= 0; i-- {
		if days > thresholds[i].Days {
			return thresholds[i].Level, days
		}
	}
	return 0, days
}

// elapsedDays truncates to whole days; a last attendance in the future counts as 0.
func elapsedDays(last, now time.Time) int {
	d := now.Sub(last)
	if d < 0 {
		return 0
	}
	return int(d / day)
}
