package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	logx "homeworkbot/pkg/logx"
)

// sdNotifier talks to systemd over $NOTIFY_SOCKET. Outside a Type=notify
// unit every call is a no-op.
type sdNotifier struct {
	log    logx.Logger
	notify func(state string) (bool, error)
	// watchdog returns the WatchdogSec interval, or 0 when disabled.
	watchdog func() (time.Duration, error)
}

func newSDNotifier(log logx.Logger) *sdNotifier {
	return &sdNotifier{
		log:      log,
		notify:   func(state string) (bool, error) { return daemon.SdNotify(false, state) },
		watchdog: func() (time.Duration, error) { return daemon.SdWatchdogEnabled(false) },
	}
}

func (n *sdNotifier) send(state string) {
	sent, err := n.notify(state)
	switch {
	case err != nil:
		n.log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
	case sent:
		n.log.Debug("sd_notify sent", logx.String("state", state))
	}
}

func (n *sdNotifier) Ready()    { n.send(daemon.SdNotifyReady) }
func (n *sdNotifier) Stopping() { n.send(daemon.SdNotifyStopping) }

func (n *sdNotifier) Status(format string, args ...any) {
	n.send("STATUS=" + fmt.Sprintf(format, args...))
}

// WatchdogInterval is half of WatchdogSec, or 0 when the watchdog is off.
func (n *sdNotifier) WatchdogInterval() time.Duration {
	d, err := n.watchdog()
	if err != nil {
		n.log.Warn("systemd watchdog misconfigured", logx.Err(err))
		return 0
	}
	return d / 2
}

// RunWatchdog pings systemd every interval until ctx is done. status is
// called before each ping and published as STATUS=.
func (n *sdNotifier) RunWatchdog(ctx context.Context, interval time.Duration, status func() string) {
	if interval <= 0 {
		return
	}
	n.log.Info("systemd watchdog enabled", logx.Duration("interval", interval))
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if status != nil {
				n.Status("%s", status())
			}
			n.send(daemon.SdNotifyWatchdog)
		}
	}
}
