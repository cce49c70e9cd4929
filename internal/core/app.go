package core

import (
	"context"
	"fmt"
	"time"

	"taskmgr/internal/config"
	"taskmgr/internal/eventbus"
	"taskmgr/internal/notify"
	"taskmgr/internal/reconcile"
	"taskmgr/internal/storage"
	"taskmgr/internal/summary"
	"taskmgr/pkg/logx"
)

// App wires the daemon together: config, logging, storage, the event buses,
// the notification gateway, and the reconciliation scheduler.
type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *Supervisor

	log  logx.Logger
	logs *logx.Service

	store *storage.Store

	gw notify.Gateway
	tg *notify.TelegramGateway // nil when notifications go to the log

	sched *reconcile.Scheduler
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	busyTimeout, err := config.ParseDurationOrDefault("database.busy_timeout", cfg.Database.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(storage.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: busyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	app := &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
	}

	// Notification gateway: Telegram when configured, log fallback otherwise.
	notifyLog := log.With(logx.String("comp", "notify"))
	if cfg.Telegram.Enabled {
		recipients, err := cfg.Telegram.ParseRecipients()
		if err != nil {
			app.closeOnInitError()
			return nil, err
		}
		tg, err := notify.NewTelegramGateway(notify.TelegramConfig{
			Token:      cfg.Telegram.Token,
			RatePerSec: cfg.Telegram.RatePerSec,
			Recipients: recipients,
		}, notifyLog)
		if err != nil {
			app.closeOnInitError()
			return nil, fmt.Errorf("telegram gateway: %w", err)
		}
		app.tg = tg
		app.gw = tg
	} else {
		app.gw = notify.LogGateway{Log: notifyLog}
	}

	overdueBus := eventbus.New[reconcile.OverdueEvent]("deadline.overdue", log.With(logx.String("comp", "eventbus")))
	upcomingBus := eventbus.New[reconcile.UpcomingDeadlineEvent]("deadline.upcoming", log.With(logx.String("comp", "eventbus")))

	disp := notify.NewDispatcher(app.gw, notifyLog)
	overdueBus.Subscribe(disp.HandleOverdue)
	upcomingBus.Subscribe(disp.HandleUpcoming)

	sweeper := reconcile.NewSweeper(store, store, overdueBus, upcomingBus,
		reconcile.SystemClock(), log.With(logx.String("comp", "sweeper")))

	sched := reconcile.NewScheduler(log.With(logx.String("comp", "scheduler")))
	iv, err := sweepIntervals(cfg.Scheduler)
	if err != nil {
		app.closeOnInitError()
		return nil, err
	}
	if err := reconcile.RegisterSweeps(sched, sweeper, iv); err != nil {
		app.closeOnInitError()
		return nil, err
	}

	if cfg.Summary.Enabled {
		sum := summary.New(store, app.gw, reconcile.SystemClock(), log.With(logx.String("comp", "summary")))
		spec, err := summary.CronSpec(cfg.Summary.At)
		if err != nil {
			app.closeOnInitError()
			return nil, err
		}
		if err := sched.AddCron("summary.daily", spec, sum.Run); err != nil {
			app.closeOnInitError()
			return nil, err
		}
	}
	app.sched = sched

	return app, nil
}

func (a *App) closeOnInitError() {
	_ = a.store.Close()
	_ = a.logs.Close()
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx, WithLogger(a.log), WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	// transactional config reload: a reload that fails here never reaches
	// subscribers, so the previous config stays live.
	a.cfgm.SetValidator(func(cfg *config.Config) error {
		if cfg.Summary.Enabled {
			if _, err := summary.CronSpec(cfg.Summary.At); err != nil {
				return err
			}
		}
		return nil
	})

	if a.cfgm.Get().Scheduler.Enabled {
		if err := a.sched.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		prevEnabled := a.cfgm.Get().Scheduler.Enabled
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				a.logs.Apply(logx.Config{
					Level:   newCfg.Logging.Level,
					Console: newCfg.Logging.ConsoleEnabled(),
					File: logx.FileConfig{
						Enabled: newCfg.Logging.File.Enabled,
						Path:    newCfg.Logging.File.Path,
					},
				})

				if a.tg != nil {
					// Validate() already checked the UUIDs on load.
					if recipients, err := newCfg.Telegram.ParseRecipients(); err == nil {
						a.tg.SetRecipients(recipients)
					}
				}

				// enable/disable sweeps on the fly; cadence changes need a restart
				if prevEnabled && !newCfg.Scheduler.Enabled {
					a.log.Info("scheduler disabled via config")
					stopCtx, cancel := context.WithTimeout(c, 3*time.Second)
					a.sched.Stop(stopCtx)
					cancel()
				} else if !prevEnabled && newCfg.Scheduler.Enabled {
					a.log.Info("scheduler enabled via config")
					if err := a.sched.Start(c); err != nil {
						a.log.Error("scheduler restart failed", logx.Err(err))
					}
				}
				prevEnabled = newCfg.Scheduler.Enabled

				a.log.Info("config reloaded")
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		_ = a.store.Close()
		return a.logs.Close()
	}
	a.sup.Cancel()

	// Run each shutdown step with an upper bound so one component can't
	// stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			} else {
				a.log.Debug("stop step end", logx.String("name", name))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Err(stepCtx.Err()))
		}
	}

	step("scheduler", 2*time.Second, func(c context.Context) error {
		a.sched.Stop(c)
		return nil
	})
	step("supervisor", 2*time.Second, func(c context.Context) error {
		return a.sup.Wait(c)
	})
	step("storage", time.Second, func(context.Context) error {
		return a.store.Close()
	})

	a.log.Info("app stopped")
	return a.logs.Close()
}

func sweepIntervals(sc config.SchedulerConfig) (reconcile.Intervals, error) {
	var iv reconcile.Intervals
	var err error
	if iv.TaskOverdue, err = config.ParseDurationField("scheduler.task_overdue_every", sc.TaskOverdueEvery); err != nil {
		return iv, err
	}
	if iv.ProjectOverdue, err = config.ParseDurationField("scheduler.project_overdue_every", sc.ProjectOverdueEvery); err != nil {
		return iv, err
	}
	if iv.TaskUpcoming, err = config.ParseDurationField("scheduler.task_upcoming_every", sc.TaskUpcomingEvery); err != nil {
		return iv, err
	}
	if iv.ProjectUpcoming, err = config.ParseDurationField("scheduler.project_upcoming_every", sc.ProjectUpcomingEvery); err != nil {
		return iv, err
	}
	return iv, nil
}
