package calculator

import (
	"time"

	"lapse-report/pkg/models"

	"go.uber.org/zap"
)

// Analyzer runs the attendance analyses over a snapshot. It holds no state
// besides its logger and is safe for concurrent use.
type Analyzer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{logger: logger}
}

// LastAttendance maps each person to the timestamp of the most recent service
// they attended. Persons without any resolvable record are absent from the map.
// Records pointing at an unknown service are logged and skipped.
func (a *Analyzer) LastAttendance(records []models.AttendanceRecord, services []models.Service) map[string]time.Time {
	startsAt := make(map[string]time.Time, len(services))
	for _, s := range services {
		startsAt[s.ID] = s.StartsAt
	}

	last := make(map[string]time.Time)
	dangling := 0
	for _, r := range records {
		ts, ok := startsAt[r.ServiceID]
		if !ok {
			dangling++
			a.logger.Warn("attendance references unknown service",
				zap.String("service_id", r.ServiceID),
				zap.String("person_id", r.PersonID),
			)
			continue
		}
		if cur, seen := last[r.PersonID]; !seen || ts.After(cur) {
			last[r.PersonID] = ts
		}
	}

	a.logger.Debug("resolved last attendance",
		zap.Int("records", len(records)),
		zap.Int("persons", len(last)),
		zap.Int("dangling", dangling),
	)
	return last
}
