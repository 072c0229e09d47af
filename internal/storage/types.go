package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "sqlite": SQLite database file (modernc.org/sqlite, no cgo)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// SentEntry records one notification delivery attempt.
type SentEntry struct {
	At        time.Time
	ChatID    int64
	ThreadID  int
	Kind      string // "status" | "failure"
	Text      string
	MessageID int
	Error     string
}
