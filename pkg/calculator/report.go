package calculator

import (
	"fmt"
	"sort"
	"time"

	"lapse-report/pkg/models"

	"go.uber.org/zap"
)

// LapsedMembers ranks the snapshot's active members by lapse tier, most
// severe first, then by days since last attendance, longest first. Members
// who never attended rank ahead of any finite count within their tier.
// Members at tier 0 are left out; an empty result is not an error.
func (a *Analyzer) LapsedMembers(snap *models.Snapshot, thresholds models.ThresholdSet, now time.Time) ([]models.LapseResult, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("lapsed members: %w", err)
	}

	last := a.LastAttendance(snap.Attendance, snap.Services)

	results := make([]models.LapseResult, 0)
	for _, m := range snap.Members {
		if !m.IsActive {
			continue
		}
		var lastAttended *time.Time
		if ts, ok := last[m.ID]; ok {
			lastAttended = &ts
		}
		tier, days := classify(lastAttended, now, thresholds)
		if tier < 1 {
			continue
		}
		results = append(results, models.LapseResult{
			Member:       m,
			Tier:         tier,
			Days:         days,
			LastAttended: lastAttended,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return ranksBefore(results[i], results[j])
	})

	a.logger.Info("lapsed members report",
		zap.Int("active_members", len(snap.Members)),
		zap.Int("lapsed", len(results)),
	)
	return results, nil
}

func ranksBefore(x, y models.LapseResult) bool {
	if x.Tier != y.Tier {
		return x.Tier > y.Tier
	}
	if x.NeverAttended() != y.NeverAttended() {
		return x.NeverAttended()
	}
	return x.Days > y.Days
}
