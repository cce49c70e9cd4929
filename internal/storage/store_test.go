package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain"
	"taskmgr/internal/reconcile"
	"taskmgr/pkg/logx"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testTask(owner uuid.UUID, due time.Time, status domain.Status) domain.Task {
	now := due.Add(-48 * time.Hour)
	return domain.Task{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     "test task",
		Status:    status,
		Priority:  domain.PriorityMedium,
		CreatedOn: now,
		UpdatedOn: now,
		DueDate:   due,
	}
}

func TestTaskRoundTrip(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()

	projectID := uuid.New()
	completed := time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)
	task := testTask(uuid.New(), time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), domain.StatusCompleted)
	task.ProjectID = &projectID
	task.Description = "with all optional fields"
	task.CompletedOn = &completed

	if err := st.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.ID != task.ID || got.OwnerID != task.OwnerID || got.Title != task.Title {
		t.Fatalf("identity fields differ: %+v", got)
	}
	if got.ProjectID == nil || *got.ProjectID != projectID {
		t.Fatalf("project id = %v, want %s", got.ProjectID, projectID)
	}
	if !got.DueDate.Equal(task.DueDate) {
		t.Fatalf("due date = %v, want %v", got.DueDate, task.DueDate)
	}
	if got.CompletedOn == nil || !got.CompletedOn.Equal(completed) {
		t.Fatalf("completed on = %v, want %v", got.CompletedOn, completed)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	_, err := st.GetTask(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOverdueCandidatesFiltering(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()

	pastDue := testTask(owner, now.Add(-time.Hour), domain.StatusTodo)
	dueNow := testTask(owner, now, domain.StatusInProgress)
	future := testTask(owner, now.Add(time.Hour), domain.StatusTodo)
	done := testTask(owner, now.Add(-time.Hour), domain.StatusCompleted)
	removed := testTask(owner, now.Add(-time.Hour), domain.StatusTodo)
	removed.Deleted = true

	for _, task := range []domain.Task{pastDue, dueNow, future, done, removed} {
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	got, err := st.OverdueCandidates(ctx, reconcile.KindTask, now)
	if err != nil {
		t.Fatalf("OverdueCandidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
	// Ordered by due date: the older one first.
	if got[0].ID != pastDue.ID || got[1].ID != dueNow.ID {
		t.Fatalf("candidate order = [%s %s], want [%s %s]",
			got[0].ID, got[1].ID, pastDue.ID, dueNow.ID)
	}
	if got[0].Kind != reconcile.KindTask {
		t.Fatalf("kind = %s, want task", got[0].Kind)
	}
}

func TestUpcomingCandidatesExcludeCompletedAndDeleted(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()

	open := testTask(owner, now.Add(23*time.Hour+30*time.Minute), domain.StatusTodo)
	done := testTask(owner, now.Add(23*time.Hour+30*time.Minute), domain.StatusCompleted)
	removed := testTask(owner, now.Add(23*time.Hour), domain.StatusTodo)
	removed.Deleted = true
	farOut := testTask(owner, now.Add(100*time.Hour), domain.StatusTodo)

	for _, task := range []domain.Task{open, done, removed, farOut} {
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	got, err := st.UpcomingCandidates(ctx, reconcile.KindTask)
	if err != nil {
		t.Fatalf("UpcomingCandidates: %v", err)
	}
	// The query does no window math; it only drops completed and deleted.
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(got), got)
	}
}

func TestSaveSnapshotPersistsFlags(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	task := testTask(uuid.New(), now.Add(-time.Hour), domain.StatusTodo)
	if err := st.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	snap := reconcile.Snapshot{
		Kind:            reconcile.KindTask,
		ID:              task.ID,
		Status:          domain.StatusOverdue,
		NotifiedOverdue: true,
	}
	if err := st.SaveSnapshot(ctx, snap); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, err := st.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.Status != domain.StatusOverdue || !got.NotifiedOverdue {
		t.Fatalf("status=%s notified=%v, want OVERDUE/true", got.Status, got.NotifiedOverdue)
	}
	if got.NotifiedUpcoming {
		t.Fatal("notifiedUpcoming flipped unexpectedly")
	}
}

func TestSaveSnapshotMissingRow(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	err := st.SaveSnapshot(context.Background(), reconcile.Snapshot{
		Kind: reconcile.KindTask,
		ID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error for missing row")
	}
}

func TestProjectCandidates(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	owner := uuid.New()

	p := domain.Project{
		ID:         uuid.New(),
		OwnerID:    owner,
		Title:      "launch",
		Status:     domain.StatusActive,
		Visibility: domain.VisibilityPrivate,
		CreatedOn:  now.Add(-72 * time.Hour),
		UpdatedOn:  now.Add(-72 * time.Hour),
		DueDate:    now.Add(-time.Minute),
	}
	if err := st.CreateProject(ctx, p); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	got, err := st.OverdueCandidates(ctx, reconcile.KindProject, now)
	if err != nil {
		t.Fatalf("OverdueCandidates: %v", err)
	}
	if len(got) != 1 || got[0].ID != p.ID || got[0].Kind != reconcile.KindProject {
		t.Fatalf("candidates = %+v, want the one project", got)
	}
}

func TestSummaryCounts(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	from := now.Add(-24 * time.Hour)
	owner := uuid.New()
	other := uuid.New()

	activities := []domain.Activity{
		{OwnerID: owner, Type: domain.ActivityTaskCreated, EntityID: uuid.New(), CreatedOn: now.Add(-2 * time.Hour)},
		{OwnerID: owner, Type: domain.ActivityTaskCreated, EntityID: uuid.New(), CreatedOn: now.Add(-23 * time.Hour)},
		{OwnerID: owner, Type: domain.ActivityTaskCompleted, EntityID: uuid.New(), CreatedOn: now.Add(-time.Hour)},
		// outside the window
		{OwnerID: owner, Type: domain.ActivityTaskCreated, EntityID: uuid.New(), CreatedOn: now.Add(-25 * time.Hour)},
		// different owner
		{OwnerID: other, Type: domain.ActivityTaskCreated, EntityID: uuid.New(), CreatedOn: now.Add(-time.Hour)},
	}
	for _, a := range activities {
		if err := st.AppendActivity(ctx, a); err != nil {
			t.Fatalf("AppendActivity: %v", err)
		}
	}

	created, err := st.CountActivities(ctx, owner, domain.ActivityTaskCreated, from, now)
	if err != nil {
		t.Fatalf("CountActivities: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	completed, err := st.CountActivities(ctx, owner, domain.ActivityTaskCompleted, from, now)
	if err != nil {
		t.Fatalf("CountActivities: %v", err)
	}
	if completed != 1 {
		t.Fatalf("completed = %d, want 1", completed)
	}
}

func TestCountOverdueTasks(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	owner := uuid.New()

	inWindow := testTask(owner, now.Add(-2*time.Hour), domain.StatusOverdue)
	oldOverdue := testTask(owner, now.Add(-48*time.Hour), domain.StatusOverdue)
	notOverdue := testTask(owner, now.Add(-3*time.Hour), domain.StatusTodo)
	for _, task := range []domain.Task{inWindow, oldOverdue, notOverdue} {
		if err := st.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	n, err := st.CountOverdueTasks(ctx, owner, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("CountOverdueTasks: %v", err)
	}
	if n != 1 {
		t.Fatalf("overdue in window = %d, want 1", n)
	}
}

func TestOwnerIDs(t *testing.T) {
	t.Parallel()
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	taskOwner := uuid.New()
	projectOwner := uuid.New()
	goneOwner := uuid.New()

	if err := st.CreateTask(ctx, testTask(taskOwner, now, domain.StatusTodo)); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	deleted := testTask(goneOwner, now, domain.StatusTodo)
	deleted.Deleted = true
	if err := st.CreateTask(ctx, deleted); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if err := st.CreateProject(ctx, domain.Project{
		ID:         uuid.New(),
		OwnerID:    projectOwner,
		Title:      "p",
		Status:     domain.StatusActive,
		Visibility: domain.VisibilityShared,
		CreatedOn:  now,
		UpdatedOn:  now,
		DueDate:    now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	owners, err := st.OwnerIDs(ctx)
	if err != nil {
		t.Fatalf("OwnerIDs: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("owners = %v, want 2 distinct", owners)
	}
	seen := map[uuid.UUID]bool{}
	for _, o := range owners {
		seen[o] = true
	}
	if !seen[taskOwner] || !seen[projectOwner] || seen[goneOwner] {
		t.Fatalf("owners = %v, want task+project owners only", owners)
	}
}
