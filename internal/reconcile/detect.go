package reconcile

import "time"

// upcomingWindowMin/Max bound the remaining time (in whole hours, truncated)
// during which a single upcoming-deadline notification fires.
const (
	upcomingWindowMin = 23
	upcomingWindowMax = 24
)

// DetectOverdue decides the overdue transition for one snapshot.
//
// If the due date is at or before now and the entity is neither completed nor
// deleted, the snapshot is marked OVERDUE and must be persisted — every time
// the condition holds, even when nothing changed since the last sweep. The
// event fires only on the first transition (notifiedOverdue flag).
//
// OVERDUE is sticky: there is no path back out of it here, and completed or
// deleted entities never enter it.
func DetectOverdue(s *Snapshot, now time.Time) (ev *OverdueEvent, persist bool) {
	if s.Deleted || s.Status == statusCompleted || s.DueDate.After(now) {
		return nil, false
	}

	s.Status = statusOverdue

	if !s.NotifiedOverdue {
		ev = &OverdueEvent{
			Kind:     s.Kind,
			EntityID: s.ID,
			OwnerID:  s.OwnerID,
			Title:    s.Title,
			DueDate:  s.DueDate,
		}
		s.NotifiedOverdue = true
	}
	return ev, true
}

// DetectUpcoming decides the upcoming-deadline notification for one snapshot.
//
// The remaining time is truncated to whole hours; the notification fires when
// that lands in [23, 24] and the dedup flag is still clear. An entity whose
// remaining hours never get observed inside the window (tick granularity,
// due-date edits) is never notified — there is no catch-up.
//
// Completed entities are not checked here: the candidate query already
// excludes them upstream.
func DetectUpcoming(s *Snapshot, now time.Time) (ev *UpcomingDeadlineEvent, persist bool) {
	if s.NotifiedUpcoming {
		return nil, false
	}

	remaining := s.DueDate.Sub(now) / time.Hour
	if remaining < upcomingWindowMin || remaining > upcomingWindowMax {
		return nil, false
	}

	s.NotifiedUpcoming = true
	return &UpcomingDeadlineEvent{
		Kind:     s.Kind,
		EntityID: s.ID,
		OwnerID:  s.OwnerID,
		Title:    s.Title,
		Deadline: s.DueDate,
	}, true
}
