package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lapse-report/pkg/models"

	"go.uber.org/zap"
)

// MarkAttendance replaces the attendance of serviceID with personIDs.
// Duplicate and blank ids are dropped. A member with no first visit and no
// attendance at any other service gets the service timestamp as first visit.
// Submitting the same set twice leaves the same rows.
func (s *Store) MarkAttendance(ctx context.Context, serviceID string, personIDs []string) (err error) {
	attendees := normalizeAttendees(personIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	var startsAt time.Time
	err = tx.QueryRowContext(ctx, `SELECT starts_at FROM services WHERE id = ?`, serviceID).Scan(&startsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("service %s: %w", serviceID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get service: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM attendance WHERE service_id = ?`, serviceID); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}

	for _, id := range attendees {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO attendance (service_id, person_id) VALUES (?, ?)`, serviceID, id); err != nil {
			return fmt.Errorf("insert attendance %s: %w", id, err)
		}
	}

	firstVisits := int64(0)
	for _, id := range attendees {
		res, execErr := tx.ExecContext(ctx, `UPDATE members SET first_visit = ?
			WHERE id = ? AND first_visit IS NULL
			AND NOT EXISTS (SELECT 1 FROM attendance a WHERE a.person_id = ? AND a.service_id <> ?)`,
			startsAt, id, id, serviceID)
		if execErr != nil {
			return fmt.Errorf("set first visit %s: %w", id, execErr)
		}
		if n, raErr := res.RowsAffected(); raErr == nil {
			firstVisits += n
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("attendance marked",
		zap.String("service_id", serviceID),
		zap.Int("attendees", len(attendees)),
		zap.Int64("first_visits", firstVisits),
	)
	return nil
}

// normalizeAttendees trims, drops blanks and removes duplicates, keeping first-seen order.
func normalizeAttendees(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
