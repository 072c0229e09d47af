package notifier

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
	to    []kit.ChatTarget
	err   error
}

func (f *fakeSender) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return kit.MessageRef{}, f.err
	}
	f.texts = append(f.texts, text)
	f.to = append(f.to, to)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(f.texts)}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

func testConfig() Config {
	return Config{Target: kit.ChatTarget{ChatID: 42}, RatePerSec: 100}
}

func TestNotifyDelivers(t *testing.T) {
	fs := &fakeSender{}
	s := New(testConfig(), fs, logx.Nop(), nil)

	if !s.Notify(context.Background(), KindStatus, "hello") {
		t.Fatal("Notify returned false")
	}
	if fs.count() != 1 || fs.to[0].ChatID != 42 {
		t.Fatalf("sent = %v to %v", fs.texts, fs.to)
	}
	h := s.History()
	if len(h) != 1 || h[0].Text != "hello" || h[0].Kind != KindStatus {
		t.Fatalf("history = %+v", h)
	}
}

func TestNotifySuppressesTransportErrors(t *testing.T) {
	fs := &fakeSender{err: errors.New("telegram: chat not found (400)")}
	s := New(testConfig(), fs, logx.Nop(), nil)

	if s.Notify(context.Background(), KindFailure, "x") {
		t.Fatal("Notify should report failure")
	}
	err := s.Send(context.Background(), KindFailure, "x")
	if !errors.Is(err, homework.ErrNotificationFailed) {
		t.Fatalf("Send err = %v, want ErrNotificationFailed", err)
	}
	if len(s.History()) != 0 {
		t.Fatal("failed sends must not enter history")
	}
}

func TestNotifyWithoutSender(t *testing.T) {
	s := New(testConfig(), nil, logx.Nop(), nil)
	if err := s.Send(context.Background(), KindStatus, "x"); !errors.Is(err, homework.ErrNotificationFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestDedupWindow(t *testing.T) {
	fs := &fakeSender{}
	cfg := testConfig()
	cfg.DedupWindow = time.Minute
	s := New(cfg, fs, logx.Nop(), nil)

	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	s.Notify(ctx, KindFailure, "api down")
	if err := s.Send(ctx, KindFailure, "api down"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("second send err = %v, want ErrDuplicate", err)
	}
	// Different kind or text is not a duplicate.
	s.Notify(ctx, KindStatus, "api down")
	s.Notify(ctx, KindFailure, "api still down")
	if fs.count() != 3 {
		t.Fatalf("sent = %d, want 3", fs.count())
	}

	now = now.Add(2 * time.Minute)
	if !s.Notify(ctx, KindFailure, "api down") {
		t.Fatal("expected delivery after window expiry")
	}
}

func TestDedupDisabledByDefault(t *testing.T) {
	fs := &fakeSender{}
	s := New(testConfig(), fs, logx.Nop(), nil)
	s.Notify(context.Background(), KindFailure, "same")
	s.Notify(context.Background(), KindFailure, "same")
	if fs.count() != 2 {
		t.Fatalf("sent = %d, want 2", fs.count())
	}
}

func TestDedupPersistsAcrossRestart(t *testing.T) {
	st, err := storage.Open(storage.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	defer st.Close()

	cfg := testConfig()
	cfg.DedupWindow = time.Hour
	ctx := context.Background()

	first := &fakeSender{}
	New(cfg, first, logx.Nop(), st).Notify(ctx, KindFailure, "api down")

	second := &fakeSender{}
	if New(cfg, second, logx.Nop(), st).Notify(ctx, KindFailure, "api down") {
		t.Fatal("restarted service re-sent a deduped message")
	}
	if first.count() != 1 || second.count() != 0 {
		t.Fatalf("sent first=%d second=%d", first.count(), second.count())
	}

	entries, err := st.RecentSent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Kind != string(KindFailure) || entries[0].ChatID != 42 {
		t.Fatalf("journal = %+v", entries)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.HistorySize = 2
	s := New(cfg, &fakeSender{}, logx.Nop(), nil)
	for _, txt := range []string{"a", "b", "c"} {
		s.Notify(context.Background(), KindStatus, txt)
	}
	h := s.History()
	if len(h) != 2 || h[0].Text != "b" || h[1].Text != "c" {
		t.Fatalf("history = %+v", h)
	}
}
