package transport

import "context"

type ChatTarget struct {
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

// SendOptions are sent as plain text; there is no parse mode.
type SendOptions struct {
	DisablePreview bool
}

// Sender delivers text messages to a chat. The bridge never receives updates,
// so this is the whole adapter surface.
type Sender interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
}
