package reconcile

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func snapshotDueIn(d time.Duration) Snapshot {
	return Snapshot{
		Kind:    KindTask,
		ID:      uuid.New(),
		OwnerID: uuid.New(),
		Title:   "write report",
		DueDate: testNow.Add(d),
		Status:  domain.StatusInProgress,
	}
}

func TestDetectOverdueTransitions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		due         time.Duration
		status      domain.Status
		deleted     bool
		notified    bool
		wantEvent   bool
		wantPersist bool
		wantStatus  domain.Status
	}{
		{
			name: "past due fires event and flips status",
			due:  -time.Hour, status: domain.StatusTodo,
			wantEvent: true, wantPersist: true, wantStatus: domain.StatusOverdue,
		},
		{
			name: "due exactly now counts as overdue",
			due:  0, status: domain.StatusInProgress,
			wantEvent: true, wantPersist: true, wantStatus: domain.StatusOverdue,
		},
		{
			name: "future due date is untouched",
			due:  time.Minute, status: domain.StatusTodo,
			wantEvent: false, wantPersist: false, wantStatus: domain.StatusTodo,
		},
		{
			name: "completed entity never goes overdue",
			due:  -time.Hour, status: domain.StatusCompleted,
			wantEvent: false, wantPersist: false, wantStatus: domain.StatusCompleted,
		},
		{
			name: "deleted entity never goes overdue",
			due:  -time.Hour, status: domain.StatusTodo, deleted: true,
			wantEvent: false, wantPersist: false, wantStatus: domain.StatusTodo,
		},
		{
			name: "already notified still persists, no second event",
			due:  -time.Hour, status: domain.StatusOverdue, notified: true,
			wantEvent: false, wantPersist: true, wantStatus: domain.StatusOverdue,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := snapshotDueIn(tt.due)
			s.Status = tt.status
			s.Deleted = tt.deleted
			s.NotifiedOverdue = tt.notified

			ev, persist := DetectOverdue(&s, testNow)
			if (ev != nil) != tt.wantEvent {
				t.Fatalf("event = %v, want event %v", ev, tt.wantEvent)
			}
			if persist != tt.wantPersist {
				t.Fatalf("persist = %v, want %v", persist, tt.wantPersist)
			}
			if s.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", s.Status, tt.wantStatus)
			}
			if ev != nil {
				if ev.EntityID != s.ID || ev.OwnerID != s.OwnerID || ev.Title != s.Title {
					t.Fatalf("event fields do not match snapshot: %+v", ev)
				}
				if !s.NotifiedOverdue {
					t.Fatal("notifiedOverdue flag not set after event")
				}
			}
		})
	}
}

func TestDetectOverdueFiresOnce(t *testing.T) {
	t.Parallel()
	s := snapshotDueIn(-time.Hour)

	ev, persist := DetectOverdue(&s, testNow)
	if ev == nil || !persist {
		t.Fatalf("first pass: ev=%v persist=%v, want event and persist", ev, persist)
	}

	// Later sweeps keep persisting but never re-notify.
	for i := 0; i < 3; i++ {
		ev, persist = DetectOverdue(&s, testNow.Add(time.Duration(i+1)*time.Minute))
		if ev != nil {
			t.Fatalf("pass %d: duplicate event %+v", i+2, ev)
		}
		if !persist {
			t.Fatalf("pass %d: overdue snapshot must persist every tick", i+2)
		}
	}
}

func TestDetectUpcomingWindow(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		due  time.Duration
		want bool
	}{
		{"25h out is too early", 25 * time.Hour, false},
		{"exactly 24h fires", 24 * time.Hour, true},
		{"23h30m truncates to 23 and fires", 23*time.Hour + 30*time.Minute, true},
		{"23h05m truncates to 23 and fires", 23*time.Hour + 5*time.Minute, true},
		{"just under 23h is outside", 23*time.Hour - time.Minute, false},
		{"22h is too late", 22 * time.Hour, false},
		{"past due never fires upcoming", -time.Hour, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := snapshotDueIn(tt.due)
			ev, persist := DetectUpcoming(&s, testNow)
			if (ev != nil) != tt.want {
				t.Fatalf("event = %v, want fire %v", ev, tt.want)
			}
			if persist != tt.want {
				t.Fatalf("persist = %v, want %v", persist, tt.want)
			}
			if tt.want && !s.NotifiedUpcoming {
				t.Fatal("notifiedUpcoming flag not set after event")
			}
			if !tt.want && s.NotifiedUpcoming {
				t.Fatal("notifiedUpcoming flag set without an event")
			}
		})
	}
}

func TestDetectUpcomingFiresOnce(t *testing.T) {
	t.Parallel()
	s := snapshotDueIn(23*time.Hour + 30*time.Minute)

	ev, persist := DetectUpcoming(&s, testNow)
	if ev == nil || !persist {
		t.Fatalf("first pass: ev=%v persist=%v, want event and persist", ev, persist)
	}

	// Still inside the window on the next tick, but the flag blocks it.
	ev, persist = DetectUpcoming(&s, testNow.Add(10*time.Minute))
	if ev != nil || persist {
		t.Fatalf("second pass: ev=%v persist=%v, want neither", ev, persist)
	}
}

func TestDetectUpcomingNoCatchUp(t *testing.T) {
	t.Parallel()
	// The window was skipped entirely: by the time the sweep looks, only 20h
	// remain. No notification, no flag, no persist.
	s := snapshotDueIn(20 * time.Hour)
	ev, persist := DetectUpcoming(&s, testNow)
	if ev != nil || persist || s.NotifiedUpcoming {
		t.Fatalf("ev=%v persist=%v flag=%v, want all clear", ev, persist, s.NotifiedUpcoming)
	}
}
