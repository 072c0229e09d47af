package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"homeworkbot/internal/reviewapi"
)

const (
	EnvAPIToken       = "API_TOKEN"
	EnvMessagingToken = "MESSAGING_TOKEN"
	EnvChatID         = "CHAT_ID"
	EnvConfigPath     = "CONFIG_PATH"
)

// legacyEnv maps each credential to the older variable name still accepted.
var legacyEnv = map[string]string{
	EnvAPIToken:       "PRACTICUM_TOKEN",
	EnvMessagingToken: "TELEGRAM_TOKEN",
	EnvChatID:         "TELEGRAM_CHAT_ID",
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint: reviewapi.DefaultEndpoint,
			Timeout:  "10s",
		},
		Telegram: TelegramConfig{
			Timeout: "10s",
		},
		Poll: PollConfig{
			Schedule: "600s",
			Lookback: "0s",
		},
		Logging: LoggingConfig{
			Level:   "debug",
			Console: true,
			File: LoggingFile{
				Enabled:    true,
				Path:       "./homework.log",
				MaxSizeMB:  50,
				MaxBackups: 5,
			},
		},
		Notifier: NotifierConfig{
			RatePerSec:  1,
			SendTimeout: "15s",
			DedupWindow: "0s",
			HistorySize: 50,
		},
		Storage: StorageConfig{Driver: "none"},
	}
}

// LoadEnvFile loads KEY=VALUE pairs from path (".env" when empty) into the
// process environment without overriding variables that are already set.
// A missing file is not an error; loaded reports whether one was read.
func LoadEnvFile(path string) (loaded bool, err error) {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("env file %s: %w", path, err)
	}
	return true, nil
}

// Load builds the configuration: defaults, then the optional file at path
// (or $CONFIG_PATH), then environment overrides. The result is validated,
// except for credentials: their absence is reported by CheckTokens.
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if strings.TrimSpace(path) != "" {
		if err := parseFile(path, cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// parseFile decodes a JSON or YAML file over the values already in cfg.
func parseFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	jb, _, err := coerceToJSONBytes(path, b)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fmt.Errorf("invalid config: trailing data")
		}
		return err
	}
	return nil
}

func (c *Config) overrideFromEnv() {
	if v := lookupEnv(EnvAPIToken); v != "" {
		c.API.Token = v
	}
	if v := lookupEnv(EnvMessagingToken); v != "" {
		c.Telegram.Token = v
	}
	if v := lookupEnv(EnvChatID); v != "" {
		c.Telegram.ChatID = v
	}
}

// lookupEnv reads name, falling back to its legacy alias.
func lookupEnv(name string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if alias, ok := legacyEnv[name]; ok {
		return strings.TrimSpace(os.Getenv(alias))
	}
	return ""
}

var validate = validator.New()

// Validate checks field constraints and duration syntax.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	durations := map[string]string{
		"api.timeout":           c.API.Timeout,
		"telegram.timeout":      c.Telegram.Timeout,
		"poll.lookback":         c.Poll.Lookback,
		"notifier.send_timeout": c.Notifier.SendTimeout,
		"notifier.dedup_window": c.Notifier.DedupWindow,
		"storage.busy_timeout":  c.Storage.BusyTimeout,
	}
	for path, raw := range durations {
		if _, err := ParseDurationField(path, raw); err != nil {
			return err
		}
	}
	return nil
}

func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
