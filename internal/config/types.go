package config

// Config is the raw, file/env-shaped configuration. Durations are Go
// duration strings (e.g. "10s", "10m"); internal/app maps them into the
// per-component runtime configs.
//
// Credentials normally come from the environment (see load.go); the file
// fields exist for deployments that mount a secret config file.
type Config struct {
	API      APIConfig      `json:"api"`
	Telegram TelegramConfig `json:"telegram"`
	Poll     PollConfig     `json:"poll"`
	Logging  LoggingConfig  `json:"logging"`
	Notifier NotifierConfig `json:"notifier"`
	Storage  StorageConfig  `json:"storage"`
}

type APIConfig struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Token    string `json:"token,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token,omitempty"`
	// ChatID is kept as a string so that a missing value is distinguishable
	// from chat 0; it must parse as an int64.
	ChatID   string `json:"chat_id,omitempty" validate:"omitempty,numeric"`
	ThreadID int    `json:"thread_id,omitempty" validate:"gte=0"`
	APIURL   string `json:"api_url,omitempty" validate:"omitempty,url"`
	Timeout  string `json:"timeout,omitempty"`
}

// PollConfig controls the control loop.
//
// Schedule accepts a Go duration ("600s", "10m"), an HH:MM interval ("00:10")
// or a cron expression ("*/10 * * * *", "@every 10m").
// Lookback shifts the initial cursor into the past; "0s" starts from now.
type PollConfig struct {
	Schedule     string `json:"schedule" validate:"required"`
	Lookback     string `json:"lookback,omitempty"`
	ReportErrors *bool  `json:"report_errors,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" validate:"gte=0"`
	MaxBackups int    `json:"max_backups,omitempty" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days,omitempty" validate:"gte=0"`
	Compress   bool   `json:"compress,omitempty"`
}

// NotifierConfig controls delivery to the chat.
// A zero dedup_window disables duplicate suppression.
type NotifierConfig struct {
	RatePerSec      int    `json:"rate_per_sec,omitempty" validate:"gte=0"`
	SendTimeout     string `json:"send_timeout,omitempty"`
	DedupWindow     string `json:"dedup_window,omitempty"`
	DedupMaxEntries int    `json:"dedup_max_entries,omitempty" validate:"gte=0"`
	HistorySize     int    `json:"history_size,omitempty" validate:"gte=0"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	storage: { driver: sqlite, path: ./data/bot.db }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty" validate:"omitempty,oneof=none sqlite sqlite3"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
}

// ReportErrorsEnabled reports whether loop failures are sent to the chat (default true).
func (p PollConfig) ReportErrorsEnabled() bool {
	return p.ReportErrors == nil || *p.ReportErrors
}
