package domain

import (
	"time"

	"github.com/google/uuid"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Task is a flat snapshot of a task row. The reconciliation engine never
// follows associations from here; everything it needs is on the struct.
type Task struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	ProjectID   *uuid.UUID
	Title       string
	Description string
	Status      Status
	Priority    Priority
	CreatedOn   time.Time
	UpdatedOn   time.Time
	DueDate     time.Time
	CompletedOn *time.Time

	Deleted          bool
	NotifiedOverdue  bool
	NotifiedUpcoming bool
}
