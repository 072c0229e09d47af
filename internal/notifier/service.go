package notifier

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	logx "homeworkbot/pkg/logx"
)

var ErrDuplicate = errors.New("duplicate notification suppressed")

// Service sends notifications to a single chat target.
//
// It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	log    logx.Logger
	sender kit.Sender
	store  storage.Store

	cfg     Config
	limiter *rate.Limiter

	// In-memory dedup cache: key -> suppress until
	dmu   sync.Mutex
	dedup map[string]time.Time

	hmu     sync.Mutex
	history []HistoryItem

	now func() time.Time
}

func New(cfg Config, sender kit.Sender, log logx.Logger, store storage.Store) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		sender: sender,
		log:    log,
		store:  store,
		dedup:  map[string]time.Time{},
		now:    time.Now,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if cfg.DedupWindow < 0 {
		cfg.DedupWindow = 0
	}
	if cfg.DedupMaxEntries <= 0 {
		cfg.DedupMaxEntries = 500
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}

	s.cfg = cfg
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Notify sends text and reports whether it was delivered. Failures are
// logged and never returned.
func (s *Service) Notify(ctx context.Context, kind Kind, text string) bool {
	err := s.Send(ctx, kind, text)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrDuplicate):
		s.log.Debug("notification suppressed (duplicate)", logx.String("kind", string(kind)))
		return false
	default:
		s.log.Error("notification not sent", logx.String("kind", string(kind)), logx.Err(err))
		return false
	}
}

// Send is the non-suppressing form of Notify. Transport errors are wrapped
// in homework.ErrNotificationFailed.
func (s *Service) Send(ctx context.Context, kind Kind, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	if s.sender == nil {
		return fmt.Errorf("%w: no sender configured", homework.ErrNotificationFailed)
	}

	key := dedupKey(cfg.Target, kind, text)
	if cfg.DedupWindow > 0 && s.suppressed(ctx, key) {
		return ErrDuplicate
	}

	sendCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()

	if err := lim.Wait(sendCtx); err != nil {
		s.journal(ctx, cfg.Target, kind, text, 0, err)
		return fmt.Errorf("%w: rate limit: %v", homework.ErrNotificationFailed, err)
	}

	ref, err := s.sender.SendText(sendCtx, cfg.Target, text, &kit.SendOptions{DisablePreview: true})
	s.journal(ctx, cfg.Target, kind, text, ref.MessageID, err)
	if err != nil {
		return fmt.Errorf("%w: %v", homework.ErrNotificationFailed, err)
	}

	s.log.Info("notification sent", logx.String("kind", string(kind)), logx.Int("message_id", ref.MessageID))
	s.appendHistory(kind, text)
	if cfg.DedupWindow > 0 {
		s.remember(ctx, key, cfg.DedupWindow, cfg.DedupMaxEntries)
	}
	return nil
}

// History returns recently delivered notifications, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) appendHistory(kind Kind, text string) {
	s.mu.Lock()
	limit := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	s.history = append(s.history, HistoryItem{At: s.now(), Kind: kind, Text: text})
	if over := len(s.history) - limit; over > 0 {
		s.history = append([]HistoryItem(nil), s.history[over:]...)
	}
	s.hmu.Unlock()
}

func (s *Service) journal(ctx context.Context, to kit.ChatTarget, kind Kind, text string, msgID int, sendErr error) {
	if s.store == nil {
		return
	}
	e := storage.SentEntry{
		At:        s.now(),
		ChatID:    to.ChatID,
		ThreadID:  to.ThreadID,
		Kind:      string(kind),
		Text:      text,
		MessageID: msgID,
	}
	if sendErr != nil {
		e.Error = sendErr.Error()
	}
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.store.AppendSent(jctx, e); err != nil {
		s.log.Warn("journal append failed", logx.Err(err))
	}
}

func dedupKey(to kit.ChatTarget, kind Kind, text string) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d:%d|%s|", to.ChatID, to.ThreadID, kind)
	_, _ = h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum64())
}

func (s *Service) suppressed(ctx context.Context, key string) bool {
	now := s.now()

	s.dmu.Lock()
	until, ok := s.dedup[key]
	s.dmu.Unlock()
	if ok && now.Before(until) {
		return true
	}

	// Persistent check for cross-restart dedup.
	if s.store != nil {
		cctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
		until, ok, err := s.store.GetDedup(cctx, key)
		cancel()
		if err != nil {
			s.log.Debug("dedup lookup failed", logx.Err(err))
			return false
		}
		if ok && now.Before(until) {
			s.dmu.Lock()
			s.dedup[key] = until
			s.dmu.Unlock()
			return true
		}
	}
	return false
}

func (s *Service) remember(ctx context.Context, key string, window time.Duration, maxEntries int) {
	now := s.now()
	until := now.Add(window)

	s.dmu.Lock()
	s.dedup[key] = until
	for k, t := range s.dedup {
		if !now.Before(t) {
			delete(s.dedup, k)
		}
	}
	// Remove entries with earliest expiry until within cap.
	for len(s.dedup) > maxEntries {
		var (
			minKey string
			minT   time.Time
		)
		for k, t := range s.dedup {
			if minKey == "" || t.Before(minT) {
				minKey, minT = k, t
			}
		}
		delete(s.dedup, minKey)
	}
	s.dmu.Unlock()

	if s.store != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.store.PutDedup(pctx, key, until); err != nil {
			s.log.Warn("dedup persist failed", logx.Err(err))
		}
	}
}
