package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lapse-report/pkg/models"

	"go.uber.org/zap"
)

const memberColumns = `id, first_name, last_name, phone, email, member_since, first_visit, is_active, is_elder, shepherd_id`

// ActiveMembers returns active members ordered by last name, first name.
func (s *Store) ActiveMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE is_active = TRUE ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.logger.Debug("loaded members", zap.Int("count", len(members)))
	return members, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (models.Member, error) {
	var (
		m          models.Member
		email      sql.NullString
		firstVisit sql.NullTime
		shepherd   sql.NullString
	)
	if err := row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Phone, &email,
		&m.MemberSince, &firstVisit, &m.IsActive, &m.IsElder, &shepherd); err != nil {
		return models.Member{}, fmt.Errorf("scan member: %w", err)
	}
	m.Email = email.String
	if firstVisit.Valid {
		fv := firstVisit.Time
		m.FirstVisit = &fv
	}
	if shepherd.Valid {
		id := shepherd.String
		m.ShepherdID = &id
	}
	return m, nil
}

// Services returns every service, most recent first.
func (s *Store) Services(ctx context.Context) ([]models.Service, error) {
	return s.queryServices(ctx, `SELECT id, starts_at, topic, speaker FROM services ORDER BY starts_at DESC`)
}

// RecentServices returns at most limit services, most recent first.
func (s *Store) RecentServices(ctx context.Context, limit int) ([]models.Service, error) {
	return s.queryServices(ctx, `SELECT id, starts_at, topic, speaker FROM services ORDER BY starts_at DESC LIMIT ?`, limit)
}

func (s *Store) queryServices(ctx context.Context, q string, args ...any) ([]models.Service, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	services := make([]models.Service, 0)
	for rows.Next() {
		var (
			svc     models.Service
			speaker sql.NullString
		)
		if err := rows.Scan(&svc.ID, &svc.StartsAt, &svc.Topic, &speaker); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		svc.Speaker = speaker.String
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

// ServiceByID returns models.ErrNotFound for an unknown id.
func (s *Store) ServiceByID(ctx context.Context, id string) (*models.Service, error) {
	var (
		svc     models.Service
		speaker sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, starts_at, topic, speaker FROM services WHERE id = ?`, id).
		Scan(&svc.ID, &svc.StartsAt, &svc.Topic, &speaker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	svc.Speaker = speaker.String
	return &svc, nil
}

// Attendance returns the full attendance log.
func (s *Store) Attendance(ctx context.Context) ([]models.AttendanceRecord, error) {
	return s.queryAttendance(ctx, `SELECT service_id, person_id FROM attendance`)
}

// AttendanceForService returns the records of one service.
func (s *Store) AttendanceForService(ctx context.Context, serviceID string) ([]models.AttendanceRecord, error) {
	return s.queryAttendance(ctx, `SELECT service_id, person_id FROM attendance WHERE service_id = ?`, serviceID)
}

func (s *Store) queryAttendance(ctx context.Context, q string, args ...any) ([]models.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	records := make([]models.AttendanceRecord, 0)
	for rows.Next() {
		var r models.AttendanceRecord
		if err := rows.Scan(&r.ServiceID, &r.PersonID); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
