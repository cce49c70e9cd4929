package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain"
	"taskmgr/internal/reconcile"
)

// snapshotColumns is the canonical SELECT list for sweep candidates; tasks
// and projects share it by construction.
const snapshotColumns = `id, owner_id, title, due_date, status, deleted, notified_overdue, notified_upcoming`

func tableFor(kind reconcile.Kind) (string, error) {
	switch kind {
	case reconcile.KindTask:
		return "tasks", nil
	case reconcile.KindProject:
		return "projects", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// OverdueCandidates returns entities that are not completed, not deleted, and
// due at or before now.
func (s *Store) OverdueCandidates(ctx context.Context, kind reconcile.Kind, now time.Time) ([]reconcile.Snapshot, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + snapshotColumns + ` FROM ` + table + `
		WHERE deleted = 0 AND status != ? AND due_date <= ?
		ORDER BY due_date`
	rows, err := s.db.QueryContext(ctx, query, string(domain.StatusCompleted), toMS(now))
	if err != nil {
		return nil, fmt.Errorf("querying %s overdue candidates: %w", kind, err)
	}
	defer rows.Close()
	return scanSnapshots(rows, kind)
}

// UpcomingCandidates returns entities that are not completed and not deleted.
// The upcoming detector does the window math itself.
func (s *Store) UpcomingCandidates(ctx context.Context, kind reconcile.Kind) ([]reconcile.Snapshot, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + snapshotColumns + ` FROM ` + table + `
		WHERE deleted = 0 AND status != ?
		ORDER BY due_date`
	rows, err := s.db.QueryContext(ctx, query, string(domain.StatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("querying %s upcoming candidates: %w", kind, err)
	}
	defer rows.Close()
	return scanSnapshots(rows, kind)
}

// SaveSnapshot persists the mutable sweep outputs: status, both dedup flags,
// and the updated-on stamp.
func (s *Store) SaveSnapshot(ctx context.Context, snap reconcile.Snapshot) error {
	table, err := tableFor(snap.Kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET status = ?, notified_overdue = ?, notified_upcoming = ?, updated_on = ? WHERE id = ?`,
		string(snap.Status),
		boolToInt(snap.NotifiedOverdue),
		boolToInt(snap.NotifiedUpcoming),
		toMS(time.Now()),
		snap.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("saving %s snapshot %s: %w", snap.Kind, snap.ID, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("saving %s snapshot %s: row not found", snap.Kind, snap.ID)
	}
	return nil
}

func scanSnapshots(rows *sql.Rows, kind reconcile.Kind) ([]reconcile.Snapshot, error) {
	var out []reconcile.Snapshot
	for rows.Next() {
		var (
			id, owner, status       string
			dueMS                   int64
			deleted, notifO, notifU int
			snap                    reconcile.Snapshot
		)
		if err := rows.Scan(&id, &owner, &snap.Title, &dueMS, &status, &deleted, &notifO, &notifU); err != nil {
			return nil, fmt.Errorf("scanning %s candidate: %w", kind, err)
		}
		entityID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scanning %s candidate: bad id %q: %w", kind, id, err)
		}
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			return nil, fmt.Errorf("scanning %s candidate %s: bad owner %q: %w", kind, id, owner, err)
		}
		snap.Kind = kind
		snap.ID = entityID
		snap.OwnerID = ownerID
		snap.DueDate = fromMS(dueMS)
		snap.Status = domain.Status(status)
		snap.Deleted = deleted != 0
		snap.NotifiedOverdue = notifO != 0
		snap.NotifiedUpcoming = notifU != 0
		out = append(out, snap)
	}
	return out, rows.Err()
}
