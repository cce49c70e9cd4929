package notify

import (
	"context"
	"fmt"

	"taskmgr/internal/reconcile"
	"taskmgr/pkg/logx"
)

// Dispatcher turns reconciliation events into notification requests and
// forwards them to the gateway. It is the sole subscriber of the two engine
// buses, and it swallows delivery failures: a broken channel must never
// surface into a sweep, and the dedup flags stay untouched either way.
type Dispatcher struct {
	gw  Gateway
	log logx.Logger
}

func NewDispatcher(gw Gateway, log logx.Logger) *Dispatcher {
	return &Dispatcher{gw: gw, log: log}
}

func (d *Dispatcher) HandleOverdue(ctx context.Context, ev reconcile.OverdueEvent) {
	subject := taskOverdueSubject
	if ev.Kind == reconcile.KindProject {
		subject = projectOverdueSubject
	}
	d.send(ctx, Message{
		OwnerID: ev.OwnerID,
		Subject: fmt.Sprintf(subject, ev.Title),
		Type:    TypeDeadline,
	}, ev.EntityID.String())
}

func (d *Dispatcher) HandleUpcoming(ctx context.Context, ev reconcile.UpcomingDeadlineEvent) {
	subject := taskUpcomingSubject
	if ev.Kind == reconcile.KindProject {
		subject = projectUpcomingSubject
	}
	d.send(ctx, Message{
		OwnerID: ev.OwnerID,
		Subject: fmt.Sprintf(subject, ev.Title),
		Type:    TypeReminder,
	}, ev.EntityID.String())
}

func (d *Dispatcher) send(ctx context.Context, m Message, entityID string) {
	if err := d.gw.Send(ctx, m); err != nil {
		d.log.Warn("notification delivery failed",
			logx.String("entity", entityID),
			logx.String("type", string(m.Type)),
			logx.Err(err),
		)
		return
	}
	d.log.Debug("notification dispatched",
		logx.String("entity", entityID),
		logx.String("type", string(m.Type)),
	)
}
