package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain"
)

// CountActivities counts activity entries of one type for one owner within
// [from, to].
func (s *Store) CountActivities(ctx context.Context, owner uuid.UUID, typ domain.ActivityType, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities
		 WHERE owner_id = ? AND deleted = 0 AND type = ? AND created_on BETWEEN ? AND ?`,
		owner.String(), string(typ), toMS(from), toMS(to),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s activities: %w", typ, err)
	}
	return n, nil
}

// CountOverdueTasks counts an owner's overdue tasks whose due date falls
// within [from, to].
func (s *Store) CountOverdueTasks(ctx context.Context, owner uuid.UUID, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE owner_id = ? AND deleted = 0 AND status = ? AND due_date BETWEEN ? AND ?`,
		owner.String(), string(domain.StatusOverdue), toMS(from), toMS(to),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting overdue tasks: %w", err)
	}
	return n, nil
}

// OwnerIDs returns every distinct owner that has at least one non-deleted
// task or project.
func (s *Store) OwnerIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id FROM tasks WHERE deleted = 0
		 UNION
		 SELECT owner_id FROM projects WHERE deleted = 0`)
	if err != nil {
		return nil, fmt.Errorf("listing owners: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning owner id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("bad owner id %q: %w", raw, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
