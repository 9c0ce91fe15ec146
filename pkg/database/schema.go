package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Attendance rows carry no foreign key on service_id: a corrected or removed
// service leaves dangling rows that the resolver skips.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id           CHAR(36)     NOT NULL PRIMARY KEY,
		first_name   VARCHAR(100) NOT NULL,
		last_name    VARCHAR(100) NOT NULL,
		phone        VARCHAR(32)  NOT NULL UNIQUE,
		email        VARCHAR(255) NULL,
		member_since DATETIME     NOT NULL,
		first_visit  DATETIME     NULL,
		is_active    BOOLEAN      NOT NULL DEFAULT TRUE,
		is_elder     BOOLEAN      NOT NULL DEFAULT FALSE,
		shepherd_id  CHAR(36)     NULL
	)`,
	`CREATE TABLE IF NOT EXISTS visitors (
		id          CHAR(36)     NOT NULL PRIMARY KEY,
		first_name  VARCHAR(100) NOT NULL,
		last_name   VARCHAR(100) NOT NULL,
		phone       VARCHAR(32)  NOT NULL UNIQUE,
		email       VARCHAR(255) NULL,
		first_visit DATETIME     NOT NULL,
		status      VARCHAR(16)  NOT NULL DEFAULT 'new'
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id        CHAR(36)     NOT NULL PRIMARY KEY,
		starts_at DATETIME     NOT NULL,
		topic     VARCHAR(255) NOT NULL,
		speaker   VARCHAR(255) NULL,
		INDEX idx_services_starts_at (starts_at)
	)`,
	`CREATE TABLE IF NOT EXISTS attendance (
		service_id CHAR(36) NOT NULL,
		person_id  CHAR(36) NOT NULL,
		PRIMARY KEY (service_id, person_id),
		INDEX idx_attendance_person (person_id)
	)`,
}

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	s.logger.Info("schema ready", zap.Int("tables", len(schema)))
	return nil
}
