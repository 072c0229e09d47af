package config

import (
	"fmt"
	"strings"

	"homeworkbot/internal/homework"
	logx "homeworkbot/pkg/logx"
)

// CheckTokens reports whether all three credentials are set. Every missing
// one is logged at CRITICAL under its environment variable name; the caller
// decides whether to stop.
func CheckTokens(cfg *Config, log logx.Logger) bool {
	return MissingTokens(cfg, log) == nil
}

// MissingTokens is CheckTokens returning the missing names as an error
// wrapping homework.ErrCredentialMissing.
func MissingTokens(cfg *Config, log logx.Logger) error {
	if cfg == nil {
		cfg = &Config{}
	}
	creds := []struct {
		env   string
		value string
	}{
		{EnvAPIToken, cfg.API.Token},
		{EnvMessagingToken, cfg.Telegram.Token},
		{EnvChatID, cfg.Telegram.ChatID},
	}

	var missing []string
	for _, c := range creds {
		if strings.TrimSpace(c.value) != "" {
			continue
		}
		missing = append(missing, c.env)
		log.Critical("required environment variable is missing, bot stopped",
			logx.String("name", c.env),
			logx.String("legacy_name", legacyEnv[c.env]))
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", homework.ErrCredentialMissing, strings.Join(missing, ", "))
}
