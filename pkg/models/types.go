package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidThresholds = errors.New("invalid lapse thresholds")
	ErrInvalidWindow     = errors.New("invalid service window")
)

/*
LOAD → entities read from the attendance store.
*/

// Member is an enrolled person. Members are never deleted, only deactivated.
type Member struct {
	ID          string
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	MemberSince time.Time
	FirstVisit  *time.Time // set once, by attendance marking
	IsActive    bool
	IsElder     bool
	ShepherdID  *string
}

// FullName returns "First Last".
func (m Member) FullName() string {
	return m.FirstName + " " + m.LastName
}

// NormalizePhone keeps digits and a leading plus, so "555-000-1234" and
// "(555) 000 1234" compare equal. No digits yields "".
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	if strings.HasPrefix(raw, "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			digits++
		}
	}
	if digits == 0 {
		return ""
	}
	return b.String()
}

// Visitor statuses.
const (
	VisitorNew       = "new"
	VisitorContacted = "contacted"
	VisitorAttending = "attending"
)

// Visitor is a non-member attendee. Visitors have no lapse tier.
type Visitor struct {
	ID         string
	FirstName  string
	LastName   string
	Phone      string
	Email      string
	FirstVisit time.Time
	Status     string
}

// Service is one dated occurrence of a recurring event.
type Service struct {
	ID       string
	StartsAt time.Time
	Topic    string
	Speaker  string
}

// AttendanceRecord links one person to one service. The pair is its identity.
type AttendanceRecord struct {
	ServiceID string
	PersonID  string
}

// Snapshot is the read-only view used for a single report computation.
type Snapshot struct {
	Members    []Member // active members, in population order
	Services   []Service
	Attendance []AttendanceRecord
}

/*
CONFIG → lapse thresholds
*/

// Tier is one lapse level: a member is at this level once the number of days
// since their last attendance strictly exceeds Days.
type Tier struct {
	Level int    `yaml:"level"`
	Name  string `yaml:"name"`
	Days  int    `yaml:"days"`
}

// ThresholdSet is ordered by Level, 1..K, with strictly increasing Days.
type ThresholdSet []Tier

// DefaultThresholds: 3 months, 6 months, 1 year, 2 years.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		{Level: 1, Name: "3 months", Days: 90},
		{Level: 2, Name: "6 months", Days: 182},
		{Level: 3, Name: "1 year", Days: 365},
		{Level: 4, Name: "2 years", Days: 730},
	}
}

// Validate reports ErrInvalidThresholds when the set is empty, levels are not
// 1..K in order, or days are negative or not strictly increasing.
func (ts ThresholdSet) Validate() error {
	if len(ts) == 0 {
		return fmt.Errorf("%w: no tiers configured", ErrInvalidThresholds)
	}
	for i, t := range ts {
		if t.Level != i+1 {
			return fmt.Errorf("%w: tier at position %d has level %d, want %d", ErrInvalidThresholds, i, t.Level, i+1)
		}
		if t.Days < 0 {
			return fmt.Errorf("%w: level %d has negative days %d", ErrInvalidThresholds, t.Level, t.Days)
		}
		if i > 0 && t.Days <= ts[i-1].Days {
			return fmt.Errorf("%w: level %d days %d not greater than level %d days %d",
				ErrInvalidThresholds, t.Level, t.Days, ts[i-1].Level, ts[i-1].Days)
		}
	}
	return nil
}

// Highest returns the most severe level.
func (ts ThresholdSet) Highest() int {
	if len(ts) == 0 {
		return 0
	}
	return ts[len(ts)-1].Level
}

// Name returns the configured name of level, or "" when unknown.
func (ts ThresholdSet) Name(level int) string {
	for _, t := range ts {
		if t.Level == level {
			return t.Name
		}
	}
	return ""
}

/*
COMPUTE → derived report rows
*/

// LapseResult is one row of the lapsed-members report. It is never stored.
type LapseResult struct {
	Member       Member
	Tier         int
	Days         int        // whole days since LastAttended; unbounded when LastAttended is nil
	LastAttended *time.Time // nil: never attended
}

// NeverAttended reports the unbounded case.
func (r LapseResult) NeverAttended() bool {
	return r.LastAttended == nil
}

// DaysLabel renders Days, or "N/A" for a member who never attended.
func (r LapseResult) DaysLabel() string {
	if r.NeverAttended() {
		return "N/A"
	}
	return fmt.Sprintf("%d", r.Days)
}
