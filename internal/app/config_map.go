package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"homeworkbot/internal/config"
	"homeworkbot/internal/notifier"
	"homeworkbot/internal/poller"
	"homeworkbot/internal/reviewapi"
	"homeworkbot/internal/storage"
	kit "homeworkbot/internal/transport"
	telegram "homeworkbot/internal/transport/telegram/adapter"
	logx "homeworkbot/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging
	return logx.Config{
		Level:   lc.Level,
		Console: lc.Console,
		File: logx.FileConfig{
			Enabled:    lc.File.Enabled,
			Path:       lc.File.Path,
			MaxSizeMB:  lc.File.MaxSizeMB,
			MaxBackups: lc.File.MaxBackups,
			MaxAgeDays: lc.File.MaxAgeDays,
			Compress:   lc.File.Compress,
		},
	}
}

func mapAPIConfig(cfg *config.Config) (reviewapi.Config, error) {
	timeout, err := config.ParseDurationOrDefault("api.timeout", cfg.API.Timeout, 10*time.Second)
	if err != nil {
		return reviewapi.Config{}, err
	}
	endpoint := strings.TrimSpace(cfg.API.Endpoint)
	if endpoint == "" {
		endpoint = reviewapi.DefaultEndpoint
	}
	return reviewapi.Config{
		Endpoint: endpoint,
		Token:    cfg.API.Token,
		Timeout:  timeout,
	}, nil
}

func mapTelegramConfig(cfg *config.Config) (telegram.Config, error) {
	timeout, err := config.ParseDurationOrDefault("telegram.timeout", cfg.Telegram.Timeout, 10*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:   cfg.Telegram.Token,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: timeout,
	}, nil
}

func mapChatTarget(cfg *config.Config) (kit.ChatTarget, error) {
	raw := strings.TrimSpace(cfg.Telegram.ChatID)
	if raw == "" {
		return kit.ChatTarget{}, fmt.Errorf("telegram.chat_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return kit.ChatTarget{}, fmt.Errorf("telegram.chat_id: invalid %q: %w", raw, err)
	}
	return kit.ChatTarget{ChatID: id, ThreadID: cfg.Telegram.ThreadID}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	target, err := mapChatTarget(cfg)
	if err != nil {
		return notifier.Config{}, err
	}
	nc := cfg.Notifier
	sendTimeout, err := config.ParseDurationOrDefault("notifier.send_timeout", nc.SendTimeout, 15*time.Second)
	if err != nil {
		return notifier.Config{}, err
	}
	window, err := config.ParseDurationField("notifier.dedup_window", nc.DedupWindow)
	if err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		Target:          target,
		RatePerSec:      nc.RatePerSec,
		SendTimeout:     sendTimeout,
		DedupWindow:     window,
		DedupMaxEntries: nc.DedupMaxEntries,
		HistorySize:     nc.HistorySize,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	switch driver {
	case "sqlite", "sqlite3":
		path := strings.TrimSpace(sc.Path)
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=%s", driver)
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", sc.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}

func mapPollConfig(cfg *config.Config) (poller.Config, error) {
	pc := cfg.Poll
	if _, err := poller.ParseSchedule(pc.Schedule); err != nil {
		return poller.Config{}, fmt.Errorf("poll.schedule: %w", err)
	}
	lookback, err := config.ParseDurationField("poll.lookback", pc.Lookback)
	if err != nil {
		return poller.Config{}, err
	}
	return poller.Config{
		Schedule:     pc.Schedule,
		Lookback:     lookback,
		ReportErrors: pc.ReportErrorsEnabled(),
	}, nil
}
