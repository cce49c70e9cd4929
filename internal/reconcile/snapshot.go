package reconcile

import (
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain"
)

// Kind selects which entity table a sweep runs over.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
)

// Local aliases for the two status codes shared by both entity kinds.
const (
	statusCompleted = domain.StatusCompleted
	statusOverdue   = domain.StatusOverdue
)

// Snapshot is an immutable-by-convention copy of the deadline-bearing fields
// of one task or project. Detectors mutate the copy in memory; nothing is
// durable until the snapshot is handed back to a SnapshotWriter.
//
// The two Notified flags are monotonic: the engine only ever flips them from
// false to true.
type Snapshot struct {
	Kind    Kind
	ID      uuid.UUID
	OwnerID uuid.UUID
	Title   string
	DueDate time.Time
	Status  domain.Status

	Deleted          bool
	NotifiedOverdue  bool
	NotifiedUpcoming bool
}

// OverdueEvent is published once per entity when it first becomes overdue.
// Events are ephemeral; they are never persisted.
type OverdueEvent struct {
	Kind     Kind
	EntityID uuid.UUID
	OwnerID  uuid.UUID
	Title    string
	DueDate  time.Time
}

// UpcomingDeadlineEvent is published once per entity when its remaining time
// first lands in the 23–24h window.
type UpcomingDeadlineEvent struct {
	Kind     Kind
	EntityID uuid.UUID
	OwnerID  uuid.UUID
	Title    string
	Deadline time.Time
}
