package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain"
)

// ErrNotFound is returned by the Get* lookups for missing or deleted rows.
var ErrNotFound = errors.New("entity not found")

const taskColumns = `id, owner_id, project_id, title, description, status, priority,
	created_on, updated_on, due_date, completed_on, deleted, notified_overdue, notified_upcoming`

const projectColumns = `id, owner_id, title, description, status, visibility, completion_percent,
	created_on, updated_on, due_date, completed_on, deleted, notified_overdue, notified_upcoming`

// CreateTask inserts a task row. The tracker app owns full CRUD; the daemon
// exposes inserts for tooling and tests.
func (s *Store) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID.String(),
		t.OwnerID.String(),
		nullableID(t.ProjectID),
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		toMS(t.CreatedOn),
		toMS(t.UpdatedOn),
		toMS(t.DueDate),
		nullableMS(t.CompletedOn),
		boolToInt(t.Deleted),
		boolToInt(t.NotifiedOverdue),
		boolToInt(t.NotifiedUpcoming),
	)
	if err != nil {
		return fmt.Errorf("inserting task %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String())

	var (
		t                       domain.Task
		idStr, ownerStr         string
		projectStr              sql.NullString
		createdMS, updatedMS    int64
		dueMS                   int64
		completedMS             sql.NullInt64
		deleted, notifO, notifU int
	)
	err := row.Scan(&idStr, &ownerStr, &projectStr, &t.Title, &t.Description,
		(*string)(&t.Status), (*string)(&t.Priority),
		&createdMS, &updatedMS, &dueMS, &completedMS, &deleted, &notifO, &notifU)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, ErrNotFound
	}
	if err != nil {
		return domain.Task{}, fmt.Errorf("reading task %s: %w", id, err)
	}

	t.ID, err = uuid.Parse(idStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("reading task %s: bad id: %w", id, err)
	}
	t.OwnerID, err = uuid.Parse(ownerStr)
	if err != nil {
		return domain.Task{}, fmt.Errorf("reading task %s: bad owner: %w", id, err)
	}
	if projectStr.Valid {
		pid, err := uuid.Parse(projectStr.String)
		if err != nil {
			return domain.Task{}, fmt.Errorf("reading task %s: bad project id: %w", id, err)
		}
		t.ProjectID = &pid
	}
	t.CreatedOn = fromMS(createdMS)
	t.UpdatedOn = fromMS(updatedMS)
	t.DueDate = fromMS(dueMS)
	t.CompletedOn = fromNullableMS(completedMS)
	t.Deleted = deleted != 0
	t.NotifiedOverdue = notifO != 0
	t.NotifiedUpcoming = notifU != 0
	return t, nil
}

func (s *Store) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID.String(),
		p.OwnerID.String(),
		p.Title,
		p.Description,
		string(p.Status),
		string(p.Visibility),
		p.CompletionPercent,
		toMS(p.CreatedOn),
		toMS(p.UpdatedOn),
		toMS(p.DueDate),
		nullableMS(p.CompletedOn),
		boolToInt(p.Deleted),
		boolToInt(p.NotifiedOverdue),
		boolToInt(p.NotifiedUpcoming),
	)
	if err != nil {
		return fmt.Errorf("inserting project %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) GetProject(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id.String())

	var (
		p                       domain.Project
		idStr, ownerStr         string
		createdMS, updatedMS    int64
		dueMS                   int64
		completedMS             sql.NullInt64
		deleted, notifO, notifU int
	)
	err := row.Scan(&idStr, &ownerStr, &p.Title, &p.Description,
		(*string)(&p.Status), (*string)(&p.Visibility), &p.CompletionPercent,
		&createdMS, &updatedMS, &dueMS, &completedMS, &deleted, &notifO, &notifU)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Project{}, ErrNotFound
	}
	if err != nil {
		return domain.Project{}, fmt.Errorf("reading project %s: %w", id, err)
	}

	p.ID, err = uuid.Parse(idStr)
	if err != nil {
		return domain.Project{}, fmt.Errorf("reading project %s: bad id: %w", id, err)
	}
	p.OwnerID, err = uuid.Parse(ownerStr)
	if err != nil {
		return domain.Project{}, fmt.Errorf("reading project %s: bad owner: %w", id, err)
	}
	p.CreatedOn = fromMS(createdMS)
	p.UpdatedOn = fromMS(updatedMS)
	p.DueDate = fromMS(dueMS)
	p.CompletedOn = fromNullableMS(completedMS)
	p.Deleted = deleted != 0
	p.NotifiedOverdue = notifO != 0
	p.NotifiedUpcoming = notifU != 0
	return p, nil
}

// AppendActivity records one activity stream entry.
func (s *Store) AppendActivity(ctx context.Context, a domain.Activity) error {
	at := a.CreatedOn
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (owner_id, type, entity_id, created_on) VALUES (?,?,?,?)`,
		a.OwnerID.String(), string(a.Type), a.EntityID.String(), toMS(at),
	)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	return nil
}
