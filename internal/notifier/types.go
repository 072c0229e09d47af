package notifier

import (
	"time"

	kit "homeworkbot/internal/transport"
)

// Kind tags a notification for dedup keys and the journal.
type Kind string

const (
	KindStatus  Kind = "status"
	KindFailure Kind = "failure"
)

// Config controls delivery.
type Config struct {
	Target          kit.ChatTarget
	RatePerSec      int
	SendTimeout     time.Duration
	DedupWindow     time.Duration
	DedupMaxEntries int
	HistorySize     int
}

type HistoryItem struct {
	At   time.Time
	Kind Kind
	Text string
}
