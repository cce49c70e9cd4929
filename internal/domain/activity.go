package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType tags an entry in the activity stream. The daemon only reads
// the creation/completion types for the daily summary; the full set is kept
// so the schema matches what the tracker app writes.
type ActivityType string

const (
	ActivityTaskCreated   ActivityType = "TASK_CREATED"
	ActivityTaskUpdated   ActivityType = "TASK_UPDATED"
	ActivityTaskCompleted ActivityType = "TASK_COMPLETED"
	ActivityTaskDeleted   ActivityType = "TASK_DELETED"

	ActivityProjectCreated   ActivityType = "PROJECT_CREATED"
	ActivityProjectUpdated   ActivityType = "PROJECT_UPDATED"
	ActivityProjectCompleted ActivityType = "PROJECT_COMPLETED"
	ActivityProjectDeleted   ActivityType = "PROJECT_DELETED"
)

// Activity is one row of the activity stream.
type Activity struct {
	OwnerID   uuid.UUID
	Type      ActivityType
	EntityID  uuid.UUID
	CreatedOn time.Time
}
