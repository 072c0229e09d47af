package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/poller"
	"homeworkbot/internal/reviewapi"
	"homeworkbot/internal/runtime/supervisor"
	"homeworkbot/internal/storage"
	telegram "homeworkbot/internal/transport/telegram/adapter"
	logx "homeworkbot/pkg/logx"
)

const stopTimeout = 5 * time.Second

type App struct {
	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter *telegram.Adapter
	notif   *notifier.Service
	api     *reviewapi.Client
	poller  *poller.Poller

	sd *sdNotifier
}

// NewLogging builds the logging service from cfg. It is separate from New
// so credential checks can log to the configured sinks before the app exists.
func NewLogging(cfg *config.Config) (*logx.Service, logx.Logger) {
	return logx.New(mapLoggingConfig(cfg))
}

// New wires every component. logs may be nil, in which case it is built
// from cfg. The caller has already checked credentials.
func New(cfg *config.Config, logs *logx.Service) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if logs == nil {
		logs, _ = NewLogging(cfg)
	}
	log := logs.Logger().With(logx.String("comp", "app"))

	tgCfg, err := mapTelegramConfig(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(tgCfg, logs.Logger().With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, logs.Logger().With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	notif := notifier.New(ncfg, ad, logs.Logger().With(logx.String("comp", "notifier")), store)

	apiCfg, err := mapAPIConfig(cfg)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	api := reviewapi.New(apiCfg, logs.Logger().With(logx.String("comp", "reviewapi")))

	pcfg, err := mapPollConfig(cfg)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	p, err := poller.New(pcfg, api, notif, logs.Logger().With(logx.String("comp", "poller")))
	if err != nil {
		closeStore(store)
		return nil, err
	}

	return &App{
		log:     log,
		logs:    logs,
		store:   store,
		adapter: ad,
		notif:   notif,
		api:     api,
		poller:  p,
		sd:      newSDNotifier(logs.Logger().With(logx.String("comp", "systemd"))),
	}, nil
}

func (a *App) Poller() *poller.Poller      { return a.poller }
func (a *App) Notifier() *notifier.Service { return a.notif }

// Run blocks until ctx is cancelled. It returns the first supervised error,
// if any; a signal-driven stop returns nil.
func (a *App) Run(ctx context.Context) error {
	sup := supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true))

	sup.Go("poller", a.poller.Run)
	if iv := a.sd.WatchdogInterval(); iv > 0 {
		sup.Go0("systemd.watchdog", func(c context.Context) {
			a.sd.RunWatchdog(c, iv, a.status)
		})
	}

	a.sd.Ready()
	a.log.Info("app started", logx.Int64("cursor", a.poller.Cursor()))

	<-sup.Context().Done()

	a.sd.Stopping()
	a.log.Info("stopping")
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	err := sup.Stop(stopCtx)
	if errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("stop deadline reached", logx.Int64("active", sup.Active()))
		return nil
	}
	return err
}

func (a *App) status() string {
	return fmt.Sprintf("%s, cursor=%d", a.poller.State(), a.poller.Cursor())
}

// Close releases storage and log sinks.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	a.log.Info("stopped", logx.Int64("cursor", a.poller.Cursor()))
	if a.logs != nil {
		if err := a.logs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("logs: %w", err))
		}
	}
	return errors.Join(errs...)
}

func closeStore(st storage.Store) {
	if st != nil {
		_ = st.Close()
	}
}
