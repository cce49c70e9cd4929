package notify

import (
	"context"

	"github.com/google/uuid"

	"taskmgr/pkg/logx"
)

// Type classifies a notification so the delivery channel can style or route
// it. Values mirror the tracker's notification categories.
type Type string

const (
	TypeDeadline Type = "DEADLINE"
	TypeReminder Type = "REMINDER"
	TypeSummary  Type = "SUMMARY"
)

// Message is one outbound notification request.
type Message struct {
	OwnerID uuid.UUID
	Subject string
	Body    string
	Type    Type
}

// Gateway delivers a message to its owner. Delivery is best effort: one
// outbound call, no retry here. Retry/backoff, if desired, belongs to the
// channel behind the gateway.
type Gateway interface {
	Send(ctx context.Context, m Message) error
}

// LogGateway writes notifications to the log. It stands in for a real
// channel when Telegram delivery is disabled.
type LogGateway struct {
	Log logx.Logger
}

func (g LogGateway) Send(_ context.Context, m Message) error {
	g.Log.Info("notification",
		logx.String("owner", m.OwnerID.String()),
		logx.String("type", string(m.Type)),
		logx.String("subject", m.Subject),
	)
	return nil
}
