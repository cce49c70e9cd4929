package reconcile

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"taskmgr/internal/eventbus"
	"taskmgr/pkg/logx"
)

// CandidateSource is the read-only port over the entity store.
// Both queries exclude deleted and completed entities; OverdueCandidates
// additionally filters on dueDate <= now.
type CandidateSource interface {
	OverdueCandidates(ctx context.Context, kind Kind, now time.Time) ([]Snapshot, error)
	UpcomingCandidates(ctx context.Context, kind Kind) ([]Snapshot, error)
}

// SnapshotWriter persists a mutated snapshot (status + both dedup flags).
type SnapshotWriter interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
}

// Sweeper runs one reconciliation pass over the candidates of a given kind.
//
// Ordering per entity is: mutate in memory, publish, persist. If the persist
// fails after the event went out, the dedup flag never made it to disk, so the
// next sweep re-evaluates the entity and re-notifies — failing open costs a
// possible duplicate notification, never a lost one.
//
// The sweeper keeps no state between runs; everything it needs lives in the
// entities themselves, which is what makes an interrupted sweep self-healing.
type Sweeper struct {
	src      CandidateSource
	writer   SnapshotWriter
	overdue  *eventbus.Bus[OverdueEvent]
	upcoming *eventbus.Bus[UpcomingDeadlineEvent]
	clock    Clock
	log      logx.Logger
}

func NewSweeper(
	src CandidateSource,
	writer SnapshotWriter,
	overdue *eventbus.Bus[OverdueEvent],
	upcoming *eventbus.Bus[UpcomingDeadlineEvent],
	clock Clock,
	log logx.Logger,
) *Sweeper {
	if clock == nil {
		clock = SystemClock()
	}
	return &Sweeper{
		src:      src,
		writer:   writer,
		overdue:  overdue,
		upcoming: upcoming,
		clock:    clock,
		log:      log,
	}
}

// RunOverdueSweep fetches overdue candidates of the given kind and applies the
// overdue transition to each. A fetch failure aborts the whole tick (the next
// tick retries from scratch); a failure on one entity never aborts the rest.
func (s *Sweeper) RunOverdueSweep(ctx context.Context, kind Kind) error {
	now := s.clock.Now()

	cands, err := s.src.OverdueCandidates(ctx, kind, now)
	if err != nil {
		return fmt.Errorf("fetch overdue candidates (%s): %w", kind, err)
	}

	for i := range cands {
		s.processEntity(ctx, &cands[i], func(snap *Snapshot) (publish func(), persist bool) {
			ev, persist := DetectOverdue(snap, now)
			if ev != nil {
				return func() { s.overdue.Publish(ctx, *ev) }, persist
			}
			return nil, persist
		})
	}
	return nil
}

// RunUpcomingSweep fetches not-completed candidates of the given kind and
// applies the upcoming-deadline check to each.
func (s *Sweeper) RunUpcomingSweep(ctx context.Context, kind Kind) error {
	now := s.clock.Now()

	cands, err := s.src.UpcomingCandidates(ctx, kind)
	if err != nil {
		return fmt.Errorf("fetch upcoming candidates (%s): %w", kind, err)
	}

	for i := range cands {
		s.processEntity(ctx, &cands[i], func(snap *Snapshot) (publish func(), persist bool) {
			ev, persist := DetectUpcoming(snap, now)
			if ev != nil {
				return func() { s.upcoming.Publish(ctx, *ev) }, persist
			}
			return nil, persist
		})
	}
	return nil
}

// processEntity runs one detector over one snapshot with per-entity recovery:
// a malformed snapshot or a panic is logged and the sweep moves on.
func (s *Sweeper) processEntity(ctx context.Context, snap *Snapshot, detect func(*Snapshot) (func(), bool)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("entity processing panicked, continuing sweep",
				logx.String("kind", string(snap.Kind)),
				logx.String("id", snap.ID.String()),
				logx.Any("panic", r),
				logx.Stack(string(debug.Stack())),
			)
		}
	}()

	if snap.DueDate.IsZero() {
		s.log.Warn("skipping entity with no due date",
			logx.String("kind", string(snap.Kind)),
			logx.String("id", snap.ID.String()),
		)
		return
	}

	publish, persist := detect(snap)
	if !persist {
		return
	}
	if publish != nil {
		publish()
	}

	if err := s.writer.SaveSnapshot(ctx, *snap); err != nil {
		// The flag write failed, so the next tick re-evaluates this entity.
		s.log.Warn("snapshot save failed, entity will be re-evaluated next tick",
			logx.String("kind", string(snap.Kind)),
			logx.String("id", snap.ID.String()),
			logx.Err(err),
		)
	}
}
