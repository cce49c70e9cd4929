package reconcile

import (
	"context"
	"time"
)

// RegisterSweeps adds the four periodic reconciliation jobs to the scheduler.
// Zero intervals fall back to the default cadences.
func RegisterSweeps(sched *Scheduler, sw *Sweeper, iv Intervals) error {
	iv = iv.withDefaults()

	type entry struct {
		name  string
		every time.Duration
		run   func(ctx context.Context) error
	}
	entries := []entry{
		{"task.overdue", iv.TaskOverdue, func(ctx context.Context) error {
			return sw.RunOverdueSweep(ctx, KindTask)
		}},
		{"project.overdue", iv.ProjectOverdue, func(ctx context.Context) error {
			return sw.RunOverdueSweep(ctx, KindProject)
		}},
		{"task.upcoming", iv.TaskUpcoming, func(ctx context.Context) error {
			return sw.RunUpcomingSweep(ctx, KindTask)
		}},
		{"project.upcoming", iv.ProjectUpcoming, func(ctx context.Context) error {
			return sw.RunUpcomingSweep(ctx, KindProject)
		}},
	}
	for _, e := range entries {
		if err := sched.AddEvery(e.name, e.every, e.run); err != nil {
			return err
		}
	}
	return nil
}
