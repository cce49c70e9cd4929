package domain

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityShared  Visibility = "SHARED"
)

// Project mirrors Task for the project aggregate. CompletionPercent and
// Visibility are carried for the surrounding app; the sweeps ignore them.
type Project struct {
	ID                uuid.UUID
	OwnerID           uuid.UUID
	Title             string
	Description       string
	Status            Status
	Visibility        Visibility
	CompletionPercent int
	CreatedOn         time.Time
	UpdatedOn         time.Time
	DueDate           time.Time
	CompletedOn       *time.Time

	Deleted          bool
	NotifiedOverdue  bool
	NotifiedUpcoming bool
}
