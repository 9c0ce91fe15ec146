package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lapse-report/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateMember inserts m, assigning an id and member-since date when blank.
// The phone is stored normalized.
func (s *Store) CreateMember(ctx context.Context, m *models.Member) error {
	m.Phone = models.NormalizePhone(m.Phone)
	if m.Phone == "" {
		return errors.New("insert member: phone required")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.MemberSince.IsZero() {
		m.MemberSince = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO members
		(`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.FirstName, m.LastName, m.Phone, nullString(m.Email),
		m.MemberSince, nullTime(m.FirstVisit), m.IsActive, m.IsElder, nullStringPtr(m.ShepherdID))
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	s.logger.Info("member created", zap.String("member_id", m.ID))
	return nil
}

// DeactivateMember flips is_active off. Members are never deleted.
func (s *Store) DeactivateMember(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE members SET is_active = FALSE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate member: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("member %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// CreateVisitor inserts v with status "new" and first visit now when unset.
func (s *Store) CreateVisitor(ctx context.Context, v *models.Visitor) error {
	v.Phone = models.NormalizePhone(v.Phone)
	if v.Phone == "" {
		return errors.New("insert visitor: phone required")
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.FirstVisit.IsZero() {
		v.FirstVisit = time.Now().UTC()
	}
	if v.Status == "" {
		v.Status = models.VisitorNew
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO visitors
		(id, first_name, last_name, phone, email, first_visit, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.FirstName, v.LastName, v.Phone, nullString(v.Email), v.FirstVisit, v.Status)
	if err != nil {
		return fmt.Errorf("insert visitor: %w", err)
	}
	s.logger.Info("visitor created", zap.String("visitor_id", v.ID))
	return nil
}

// CreateService inserts svc, assigning an id when blank.
func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO services (id, starts_at, topic, speaker) VALUES (?, ?, ?, ?)`,
		svc.ID, svc.StartsAt.UTC(), svc.Topic, nullString(svc.Speaker))
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

// FindPersonByPhone looks up members first, then visitors. Phones are
// compared in their normalized form, the form every insert stores.
func (s *Store) FindPersonByPhone(ctx context.Context, phone string) (string, bool, error) {
	phone = models.NormalizePhone(phone)
	if phone == "" {
		return "", false, nil
	}
	for _, table := range []string{"members", "visitors"} {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE phone = ?`, phone).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("find %s by phone: %w", table, err)
		}
		return id, true, nil
	}
	return "", false, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return nullString(*s)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
