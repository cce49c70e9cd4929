package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"taskmgr/pkg/logx"
)

// Manager owns the config file: initial load, strict decoding, validation,
// and hot reload over fsnotify. Subscribers get the new config only after it
// validated; a bad edit keeps the previous config live.
type Manager struct {
	path string

	mu        sync.RWMutex
	cfg       *Config
	subs      []chan *Config
	validator func(*Config) error
	log       logx.Logger
}

func NewManager(path string) *Manager {
	return &Manager{path: path, log: logx.Nop()}
}

func (m *Manager) SetLogger(log logx.Logger) {
	m.mu.Lock()
	m.log = log
	m.mu.Unlock()
}

// SetValidator installs an extra validation hook run after the built-in
// checks on every load.
func (m *Manager) SetValidator(fn func(*Config) error) {
	m.mu.Lock()
	m.validator = fn
	m.mu.Unlock()
}

func (m *Manager) Load() (*Config, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}

	jb, format, err := coerceToJSONBytes(m.path, b)
	if err != nil {
		return nil, fmt.Errorf("config %s (%s): %w", m.path, format, err)
	}

	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config %s (%s): %w", m.path, format, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	extra := m.validator
	m.mu.RUnlock()
	if extra != nil {
		if err := extra(&cfg); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	m.cfg = &cfg
	m.mu.Unlock()
	return &cfg, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Subscribe(buffer int) <-chan *Config {
	ch := make(chan *Config, buffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) publish(cfg *Config) {
	m.mu.RLock()
	subs := append([]chan *Config{}, m.subs...)
	m.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- cfg:
		default:
			// drop for slow subscribers; they'll pick up the next reload
		}
	}
}

// Watch re-loads and publishes the config whenever the file changes. It
// returns when ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	dir := filepath.Dir(m.path)
	file := filepath.Base(m.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	// debounce to avoid partial writes
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			cfg, err := m.Load()
			if err != nil {
				m.logger().Warn("config reload rejected, keeping previous config", logx.Err(err))
				return
			}
			m.publish(cfg)
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.Events:
			if ev.Name == filepath.Join(dir, file) {
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			}
		case <-w.Errors:
			// keep watching
		}
	}
}

func (m *Manager) logger() logx.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.log
}

// Validate applies the built-in structural checks.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := ParseDurationField("database.busy_timeout", c.Database.BusyTimeout); err != nil {
		return err
	}

	for name, raw := range map[string]string{
		"scheduler.task_overdue_every":    c.Scheduler.TaskOverdueEvery,
		"scheduler.project_overdue_every": c.Scheduler.ProjectOverdueEvery,
	} {
		if _, err := ParseDurationField(name, raw); err != nil {
			return err
		}
	}
	// Upcoming sweeps must tick at least once inside the 1-hour window.
	for name, raw := range map[string]string{
		"scheduler.task_upcoming_every":    c.Scheduler.TaskUpcomingEvery,
		"scheduler.project_upcoming_every": c.Scheduler.ProjectUpcomingEvery,
	} {
		d, err := ParseDurationField(name, raw)
		if err != nil {
			return err
		}
		if d > time.Hour {
			return fmt.Errorf("%s: must be <= 1h to observe the 23-24h window", name)
		}
	}

	if c.Summary.Enabled && c.Summary.At != "" {
		if _, err := time.Parse("15:04", c.Summary.At); err != nil {
			return fmt.Errorf("summary.at: invalid time %q, expected HH:MM", c.Summary.At)
		}
	}

	if _, err := c.Telegram.ParseRecipients(); err != nil {
		return err
	}
	if c.Telegram.Enabled && c.Telegram.Token == "" {
		return fmt.Errorf("telegram.token is required when telegram.enabled is true")
	}
	return nil
}

// ParseRecipients converts the raw owner→chat map to typed IDs.
func (t TelegramConfig) ParseRecipients() (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(t.Recipients))
	for raw, chat := range t.Recipients {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("telegram.recipients: invalid owner id %q: %w", raw, err)
		}
		out[id] = chat
	}
	return out, nil
}
