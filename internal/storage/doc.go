// Package storage provides the optional persistence layer used by the bridge.
//
// It currently supports:
//   - A journal of notification delivery attempts
//   - Notifier dedup state (so a repeated failure report survives restarts)
//
// The poll cursor is not stored here; it lives in memory only.
package storage
