package calculator

import (
	"context"
	"errors"
	"testing"

	"lapse-report/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memberIDs(ms []models.Member) []string {
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestAbsentFromLastN(t *testing.T) {
	a := New(zap.NewNop())
	snap := &models.Snapshot{
		Members: []models.Member{member("a"), member("b"), member("c"), member("d")},
		// deliberately unordered
		Services: []models.Service{service("old", 60), service("w1", 7), service("w3", 21), service("w2", 14)},
		Attendance: []models.AttendanceRecord{
			{ServiceID: "w1", PersonID: "a"},
			{ServiceID: "w3", PersonID: "b"},
			{ServiceID: "old", PersonID: "c"},
		},
	}

	got, err := a.AbsentFromLastN(snap, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, memberIDs(got))

	got, err = a.AbsentFromLastN(snap, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, memberIDs(got))

	assert.Equal(t, "old", snap.Services[0].ID, "input order must be preserved")
}

func TestAbsentFromLastN_FewerServicesThanWindow(t *testing.T) {
	a := New(zap.NewNop())
	snap := &models.Snapshot{
		Members:    []models.Member{member("a"), member("b")},
		Services:   []models.Service{service("only", 3)},
		Attendance: []models.AttendanceRecord{{ServiceID: "only", PersonID: "a"}},
	}

	got, err := a.AbsentFromLastN(snap, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, memberIDs(got))
}

func TestAbsentFromLastN_NoServices(t *testing.T) {
	a := New(zap.NewNop())
	snap := &models.Snapshot{Members: []models.Member{member("a")}}

	got, err := a.AbsentFromLastN(snap, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAbsentFromLastN_InvalidWindow(t *testing.T) {
	a := New(zap.NewNop())
	_, err := a.AbsentFromLastN(&models.Snapshot{}, 0)
	assert.True(t, errors.Is(err, models.ErrInvalidWindow))
}

func TestFirstTimeAttendees(t *testing.T) {
	a := New(zap.NewNop())
	s1, s2 := service("s1", 14), service("s2", 7)

	newcomer := member("newcomer")
	newcomer.FirstVisit = &s2.StartsAt
	regular := member("regular")
	regular.FirstVisit = &s1.StartsAt
	unmarked := member("unmarked")
	elsewhere := member("elsewhere")
	elsewhere.FirstVisit = &s2.StartsAt

	snap := &models.Snapshot{
		Members:  []models.Member{regular, newcomer, unmarked, elsewhere},
		Services: []models.Service{s1, s2},
		Attendance: []models.AttendanceRecord{
			{ServiceID: "s1", PersonID: "regular"},
			{ServiceID: "s2", PersonID: "regular"},
			{ServiceID: "s2", PersonID: "newcomer"},
			{ServiceID: "s2", PersonID: "unmarked"},
		},
	}

	got, err := a.FirstTimeAttendees(snap, "s2")
	require.NoError(t, err)
	assert.Equal(t, []string{"newcomer"}, memberIDs(got))

	got, err = a.FirstTimeAttendees(snap, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"regular"}, memberIDs(got))
}

func TestFirstTimeAttendees_UnknownService(t *testing.T) {
	a := New(zap.NewNop())
	_, err := a.FirstTimeAttendees(&models.Snapshot{}, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type fakeSource struct {
	members    []models.Member
	services   []models.Service
	attendance []models.AttendanceRecord
	err        error
}

func (f *fakeSource) ActiveMembers(ctx context.Context) ([]models.Member, error) {
	return f.members, nil
}

func (f *fakeSource) Services(ctx context.Context) ([]models.Service, error) {
	return f.services, nil
}

func (f *fakeSource) Attendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.attendance, nil
}

func TestLoadSnapshot(t *testing.T) {
	src := &fakeSource{
		members:    []models.Member{member("a")},
		services:   []models.Service{service("s1", 1)},
		attendance: []models.AttendanceRecord{{ServiceID: "s1", PersonID: "a"}},
	}

	snap, err := LoadSnapshot(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src.members, snap.Members)
	assert.Equal(t, src.services, snap.Services)
	assert.Equal(t, src.attendance, snap.Attendance)
}

func TestLoadSnapshot_PropagatesError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := LoadSnapshot(context.Background(), &fakeSource{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load attendance")
}
