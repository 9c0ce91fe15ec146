package calculator

import (
	"fmt"
	"sort"

	"lapse-report/pkg/models"
)

// AbsentFromLastN returns the active members who attended none of the n most
// recent services. Fewer than n services uses all of them; no services at all
// gives an empty result.
func (a *Analyzer) AbsentFromLastN(snap *models.Snapshot, n int) ([]models.Member, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n=%d", models.ErrInvalidWindow, n)
	}
	window := mostRecent(snap.Services, n)
	if len(window) == 0 {
		return []models.Member{}, nil
	}

	inWindow := make(map[string]struct{}, len(window))
	for _, s := range window {
		inWindow[s.ID] = struct{}{}
	}
	present := make(map[string]struct{})
	for _, r := range snap.Attendance {
		if _, ok := inWindow[r.ServiceID]; ok {
			present[r.PersonID] = struct{}{}
		}
	}

	absent := make([]models.Member, 0)
	for _, m := range snap.Members {
		if !m.IsActive {
			continue
		}
		if _, ok := present[m.ID]; !ok {
			absent = append(absent, m)
		}
	}
	return absent, nil
}

// FirstTimeAttendees returns the members recorded at serviceID whose first
// visit is that service's timestamp.
func (a *Analyzer) FirstTimeAttendees(snap *models.Snapshot, serviceID string) ([]models.Member, error) {
	var service *models.Service
	for i := range snap.Services {
		if snap.Services[i].ID == serviceID {
			service = &snap.Services[i]
			break
		}
	}
	if service == nil {
		return nil, fmt.Errorf("service %s: %w", serviceID, models.ErrNotFound)
	}

	attended := make(map[string]struct{})
	for _, r := range snap.Attendance {
		if r.ServiceID == serviceID {
			attended[r.PersonID] = struct{}{}
		}
	}

	first := make([]models.Member, 0)
	for _, m := range snap.Members {
		if _, ok := attended[m.ID]; !ok || m.FirstVisit == nil {
			continue
		}
		if m.FirstVisit.Equal(service.StartsAt) {
			first = append(first, m)
		}
	}
	return first, nil
}

// mostRecent returns up to n services, newest first, without reordering the input.
func mostRecent(services []models.Service, n int) []models.Service {
	sorted := make([]models.Service, len(services))
	copy(sorted, services)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartsAt.After(sorted[j].StartsAt)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
