package poller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"homeworkbot/internal/homework"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/reviewapi"
	logx "homeworkbot/pkg/logx"
)

// FailurePrefix starts every loop failure reported to the chat.
const FailurePrefix = "Сбой в работе программы: "

var errIterationPanic = errors.New("poll iteration panicked")

// Fetcher returns the raw status payload for changes since fromDate.
type Fetcher interface {
	Fetch(ctx context.Context, fromDate int64) (homework.Payload, error)
}

// Notifier delivers a chat message; it reports delivery and never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, kind notifier.Kind, text string) bool
}

// Config controls the loop. Start pins the initial cursor (unix seconds);
// zero means now minus Lookback.
type Config struct {
	Schedule     string
	Start        int64
	Lookback     time.Duration
	ReportErrors bool
}

type State int32

const (
	StateStarting State = iota
	StatePolling
	StateSending
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StatePolling:
		return "polling"
	case StateSending:
		return "sending"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Poller owns the cursor and runs fetch → validate → notify → advance.
type Poller struct {
	fetch        Fetcher
	notify       Notifier
	log          logx.Logger
	sched        cron.Schedule
	reportErrors bool

	cursor atomic.Int64
	state  atomic.Int32

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, f Fetcher, n Notifier, log logx.Logger) (*Poller, error) {
	if f == nil {
		return nil, errors.New("poller: fetcher is nil")
	}
	if n == nil {
		return nil, errors.New("poller: notifier is nil")
	}
	sched, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	p := &Poller{
		fetch:        f,
		notify:       n,
		log:          log,
		sched:        sched,
		reportErrors: cfg.ReportErrors,
		now:          time.Now,
		sleep:        sleepCtx,
	}
	start := cfg.Start
	if start <= 0 {
		start = p.now().Add(-cfg.Lookback).Unix()
	}
	p.cursor.Store(start)
	return p, nil
}

// Cursor is the from_date used by the next Poll.
func (p *Poller) Cursor() int64 { return p.cursor.Load() }

func (p *Poller) State() State { return State(p.state.Load()) }

func (p *Poller) setState(s State) { p.state.Store(int32(s)) }

// Poll runs one iteration. On error the cursor is left unchanged.
// A failed status notification does not hold the cursor back.
func (p *Poller) Poll(ctx context.Context) error {
	p.setState(StatePolling)
	from := p.Cursor()

	payload, err := p.fetch.Fetch(ctx, from)
	if err != nil {
		return err
	}
	subs, err := homework.CheckResponse(payload)
	if err != nil {
		return err
	}
	date, err := payload.CurrentDate()
	if err != nil {
		return err
	}

	if len(subs) == 0 {
		p.log.Debug("no new statuses", logx.Int64("from_date", from))
	} else {
		p.log.Info("homework status has news", logx.Int("count", len(subs)))
		msg, err := homework.ParseStatus(subs[0])
		if err != nil {
			return err
		}
		p.setState(StateSending)
		if !p.notify.Notify(ctx, notifier.KindStatus, msg) {
			p.log.Warn("status notification not delivered; cursor advances anyway")
		}
	}

	p.advance(date)
	return nil
}

func (p *Poller) advance(date int64) {
	cur := p.Cursor()
	if date < cur {
		p.log.Warn("current_date moved backwards; cursor kept",
			logx.Int64("cursor", cur), logx.Int64("current_date", date))
		return
	}
	p.cursor.Store(date)
	p.log.Debug("cursor advanced", logx.Int64("cursor", date))
}

// Run polls on schedule until ctx is cancelled. Iteration errors and panics
// are logged, reported to the chat and never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("poller started", logx.Int64("cursor", p.Cursor()))
	defer func() {
		p.setState(StateStopped)
		p.log.Info("poller stopped", logx.Int64("cursor", p.Cursor()))
	}()

	for {
		if err := p.iterate(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.report(ctx, err)
		}

		p.setState(StateSleeping)
		now := p.now()
		wait := p.sched.Next(now).Sub(now)
		p.log.Debug("sleeping until next poll", logx.Duration("wait", wait))
		if err := p.sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

func (p *Poller) iterate(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Critical("poll iteration panicked",
				logx.Any("panic", r),
				logx.Stack(logx.StackTrace(3, 32)))
			err = fmt.Errorf("%w: %v", errIterationPanic, r)
		}
	}()
	return p.Poll(ctx)
}

// report classifies err, logs it and sends the failure message.
func (p *Poller) report(ctx context.Context, err error) {
	switch {
	case errors.Is(err, errIterationPanic):
		// already logged at CRITICAL
	case errors.Is(err, homework.ErrAPIUnavailable):
		fields := []logx.Field{logx.Err(err)}
		if code := reviewapi.StatusCode(err); code != 0 {
			fields = append(fields, logx.Int("http_status", code))
		}
		p.log.Error("review api unavailable", fields...)
	case errors.Is(err, homework.ErrMalformedPayload):
		p.log.Error("review api returned malformed payload", logx.Err(err))
	case errors.Is(err, homework.ErrKeyMissing),
		errors.Is(err, homework.ErrShapeInvalid),
		errors.Is(err, homework.ErrTypeInvalid):
		p.log.Error("review api response failed validation", logx.Err(err))
	case errors.Is(err, homework.ErrUnknownStatus),
		errors.Is(err, homework.ErrUnknownStatusForHomework):
		p.log.Error("homework status not recognised", logx.Err(err))
	case errors.Is(err, homework.ErrNotificationFailed):
		p.log.Error("notification failed", logx.Err(err))
	default:
		p.log.Error("unexpected error in poll loop", logx.Err(err))
	}

	if !p.reportErrors {
		return
	}
	p.notifyFailure(ctx, err)
}

// notifyFailure sends the failure message. A panic in the notifier is
// logged at CRITICAL and swallowed so the loop keeps its schedule.
func (p *Poller) notifyFailure(ctx context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Critical("failure notification panicked",
				logx.Any("panic", r),
				logx.Err(err),
				logx.Stack(logx.StackTrace(3, 32)))
		}
	}()
	p.setState(StateSending)
	p.notify.Notify(ctx, notifier.KindFailure, FailurePrefix+err.Error())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
