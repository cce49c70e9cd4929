// Package summary computes and sends the daily productivity overview.
package summary

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskmgr/internal/domain"
	"taskmgr/internal/notify"
	"taskmgr/internal/reconcile"
	"taskmgr/pkg/logx"
)

const (
	summarySubject = "Daily Summary Activity Message"

	summaryBody = `📊 Your Daily Productivity Overview:

• 📝 Tasks created: %d
• ✅ Tasks completed: %d
• ⚠️ Overdue tasks: %d

• 📁 Projects created: %d
• 📚 Projects completed: %d

• 🎯 Task completion rate (last 24h): %.2f%%

💪 Keep the momentum — tomorrow can be even better! 🚀`
)

// Stats is one owner's last-24h digest.
type Stats struct {
	CreatedTasks       int64
	CompletedTasks     int64
	OverdueTasks       int64
	CreatedProjects    int64
	CompletedProjects  int64
	TaskCompletionRate float64 // percent, rounded to 2 decimals
}

// Reader is the slice of the store the summary job needs.
type Reader interface {
	OwnerIDs(ctx context.Context) ([]uuid.UUID, error)
	CountActivities(ctx context.Context, owner uuid.UUID, typ domain.ActivityType, from, to time.Time) (int64, error)
	CountOverdueTasks(ctx context.Context, owner uuid.UUID, from, to time.Time) (int64, error)
}

type Service struct {
	store Reader
	gw    notify.Gateway
	clock reconcile.Clock
	log   logx.Logger
}

func New(store Reader, gw notify.Gateway, clock reconcile.Clock, log logx.Logger) *Service {
	if clock == nil {
		clock = reconcile.SystemClock()
	}
	return &Service{store: store, gw: gw, clock: clock, log: log}
}

// Run sends one summary per owner. A failure for one owner is logged and the
// rest still get theirs; a failure listing owners aborts the run (next
// scheduled run retries).
func (s *Service) Run(ctx context.Context) error {
	owners, err := s.store.OwnerIDs(ctx)
	if err != nil {
		return fmt.Errorf("list owners for daily summary: %w", err)
	}

	for _, owner := range owners {
		stats, err := s.Compute(ctx, owner)
		if err != nil {
			s.log.Warn("daily summary computation failed",
				logx.String("owner", owner.String()), logx.Err(err))
			continue
		}
		if err := s.gw.Send(ctx, Message(owner, stats)); err != nil {
			s.log.Warn("daily summary delivery failed",
				logx.String("owner", owner.String()), logx.Err(err))
		}
	}
	return nil
}

// Compute gathers one owner's digest over the trailing 24 hours.
func (s *Service) Compute(ctx context.Context, owner uuid.UUID) (Stats, error) {
	now := s.clock.Now()
	yesterday := now.Add(-24 * time.Hour)

	var st Stats
	var err error

	if st.CreatedTasks, err = s.store.CountActivities(ctx, owner, domain.ActivityTaskCreated, yesterday, now); err != nil {
		return Stats{}, err
	}
	if st.CompletedTasks, err = s.store.CountActivities(ctx, owner, domain.ActivityTaskCompleted, yesterday, now); err != nil {
		return Stats{}, err
	}
	if st.OverdueTasks, err = s.store.CountOverdueTasks(ctx, owner, yesterday, now); err != nil {
		return Stats{}, err
	}
	if st.CreatedProjects, err = s.store.CountActivities(ctx, owner, domain.ActivityProjectCreated, yesterday, now); err != nil {
		return Stats{}, err
	}
	if st.CompletedProjects, err = s.store.CountActivities(ctx, owner, domain.ActivityProjectCompleted, yesterday, now); err != nil {
		return Stats{}, err
	}

	st.TaskCompletionRate = completionRate(st.CreatedTasks, st.CompletedTasks)
	return st, nil
}

// Message renders one owner's digest as a notification request.
func Message(owner uuid.UUID, st Stats) notify.Message {
	return notify.Message{
		OwnerID: owner,
		Subject: summarySubject,
		Body: fmt.Sprintf(summaryBody,
			st.CreatedTasks, st.CompletedTasks, st.OverdueTasks,
			st.CreatedProjects, st.CompletedProjects, st.TaskCompletionRate),
		Type: notify.TypeSummary,
	}
}

// completionRate is completed/created as a percentage, two decimals, with 0
// for owners who created nothing.
func completionRate(created, completed int64) float64 {
	if created == 0 {
		return 0
	}
	p := float64(completed) / float64(created) * 100
	return math.Round(p*100) / 100
}

// CronSpec converts "HH:MM" into the 5-field cron spec for a daily run.
func CronSpec(at string) (string, error) {
	at = strings.TrimSpace(at)
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("invalid hour in %q", at)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("invalid minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}
