package calculator

import (
	"context"
	"fmt"

	"lapse-report/pkg/models"

	"golang.org/x/sync/errgroup"
)

// SnapshotSource is the read side of the attendance store.
type SnapshotSource interface {
	ActiveMembers(ctx context.Context) ([]models.Member, error)
	Services(ctx context.Context) ([]models.Service, error)
	Attendance(ctx context.Context) ([]models.AttendanceRecord, error)
}

// LoadSnapshot reads members, services and attendance in parallel.
func LoadSnapshot(ctx context.Context, src SnapshotSource) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		members, err := src.ActiveMembers(gctx)
		if err != nil {
			return fmt.Errorf("load members: %w", err)
		}
		snap.Members = members
		return nil
	})
	g.Go(func() error {
		services, err := src.Services(gctx)
		if err != nil {
			return fmt.Errorf("load services: %w", err)
		}
		snap.Services = services
		return nil
	})
	g.Go(func() error {
		records, err := src.Attendance(gctx)
		if err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}
		snap.Attendance = records
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
