package config

// Config is the daemon's whole configuration. JSON tags drive decoding for
// both formats: YAML input is coerced to JSON so one strict decoder serves
// both (see yaml.go).
type Config struct {
	Database  DatabaseConfig  `json:"database"`
	Logging   LoggingConfig   `json:"logging"`
	Telegram  TelegramConfig  `json:"telegram,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Summary   SummaryConfig   `json:"summary,omitempty"`
}

type DatabaseConfig struct {
	Path string `json:"path"`

	// BusyTimeout is a Go duration string (e.g. "500ms", "5s").
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"` // TRACE..ERROR, default INFO
	Console *bool      `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// TelegramConfig routes notifications to owners' chats. When disabled (or
// the token is empty), notifications go to the log instead.
type TelegramConfig struct {
	Enabled    bool   `json:"enabled"`
	Token      string `json:"token,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`

	// Recipients maps owner UUIDs to Telegram chat IDs.
	Recipients map[string]int64 `json:"recipients,omitempty"`
}

// SchedulerConfig controls the reconciliation sweeps.
//
// The cadence fields are Go duration strings and default to the engine's
// fixed cadences (60s overdue sweeps, 30m/60m upcoming sweeps). An upcoming
// cadence above 1h can step over the notification window entirely; Validate
// rejects it.
type SchedulerConfig struct {
	Enabled              bool   `json:"enabled"`
	TaskOverdueEvery     string `json:"task_overdue_every,omitempty"`
	ProjectOverdueEvery  string `json:"project_overdue_every,omitempty"`
	TaskUpcomingEvery    string `json:"task_upcoming_every,omitempty"`
	ProjectUpcomingEvery string `json:"project_upcoming_every,omitempty"`
}

type SummaryConfig struct {
	Enabled bool `json:"enabled"`

	// At is the daily send time as "HH:MM" (default "10:00").
	At string `json:"at,omitempty"`
}

// Default returns the configuration used when a section is omitted.
func Default() Config {
	on := true
	return Config{
		Database:  DatabaseConfig{Path: "./taskmgr.db"},
		Logging:   LoggingConfig{Level: "INFO", Console: &on},
		Scheduler: SchedulerConfig{Enabled: true},
		Summary:   SummaryConfig{Enabled: true, At: "10:00"},
	}
}

// ConsoleEnabled resolves the tri-state console flag (default on).
func (l LoggingConfig) ConsoleEnabled() bool {
	return l.Console == nil || *l.Console
}
