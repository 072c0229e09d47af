package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"homeworkbot/internal/homework"
	logx "homeworkbot/pkg/logx"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIToken, EnvMessagingToken, EnvChatID, EnvConfigPath,
		"PRACTICUM_TOKEN", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaultsWithEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvAPIToken, "api")
	t.Setenv(EnvMessagingToken, "tg")
	t.Setenv(EnvChatID, "-100500")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Token != "api" || cfg.Telegram.Token != "tg" || cfg.Telegram.ChatID != "-100500" {
		t.Fatalf("credentials not applied: %+v", cfg)
	}
	if cfg.Poll.Schedule != "600s" {
		t.Fatalf("schedule = %q", cfg.Poll.Schedule)
	}
	if !cfg.Poll.ReportErrorsEnabled() {
		t.Fatal("report_errors should default to true")
	}
	if cfg.Logging.File.MaxSizeMB != 50 || cfg.Logging.File.MaxBackups != 5 {
		t.Fatalf("log rotation defaults = %+v", cfg.Logging.File)
	}
}

func TestLoadLegacyEnvNames(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("PRACTICUM_TOKEN", "p")
	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("TELEGRAM_CHAT_ID", "7")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Token != "p" || cfg.Telegram.Token != "t" || cfg.Telegram.ChatID != "7" {
		t.Fatalf("legacy env not applied: %+v", cfg)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(EnvAPIToken, "from-env")
	path := writeFile(t, "bot.yaml", `
api:
  token: from-file
  timeout: 5s
poll:
  schedule: "*/10 * * * *"
  report_errors: false
storage:
  driver: sqlite
  path: ./bot.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Token != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.API.Token)
	}
	if cfg.API.Timeout != "5s" || cfg.Poll.Schedule != "*/10 * * * *" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Poll.ReportErrorsEnabled() {
		t.Fatal("report_errors=false ignored")
	}
	// Untouched sections keep defaults.
	if cfg.API.Endpoint == "" || cfg.Logging.Level != "debug" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	clearCredentialEnv(t)
	cases := map[string]string{
		"unknown.yaml":  "polling:\n  schedule: 10m\n",
		"badurl.json":   `{"api": {"endpoint": "not a url"}}`,
		"baddur.yaml":   "api:\n  timeout: soon\n",
		"negative.yaml": "notifier:\n  dedup_window: -1m\n",
		"driver.yaml":   "storage:\n  driver: redis\n",
		"chat.yaml":     "telegram:\n  chat_id: general\n",
		"trailing.json": `{} {}`,
	}
	for name, body := range cases {
		if _, err := Load(writeFile(t, name, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEmptyYAMLKeepsDefaults(t *testing.T) {
	clearCredentialEnv(t)
	cfg, err := Load(writeFile(t, "empty.yml", "# nothing here\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Poll.Schedule != "600s" {
		t.Fatalf("schedule = %q", cfg.Poll.Schedule)
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearCredentialEnv(t)
	if loaded, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env")); err != nil || loaded {
		t.Fatalf("missing .env: loaded=%v err=%v", loaded, err)
	}

	// godotenv skips variables that exist at all, even when empty.
	if err := os.Unsetenv(EnvAPIToken); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvChatID, "already-set")
	path := writeFile(t, ".env", "API_TOKEN=dotenv-api\nCHAT_ID=dotenv-chat\n")
	loaded, err := LoadEnvFile(path)
	if err != nil || !loaded {
		t.Fatalf("LoadEnvFile: loaded=%v err=%v", loaded, err)
	}
	if got := os.Getenv(EnvAPIToken); got != "dotenv-api" {
		t.Fatalf("API_TOKEN = %q", got)
	}
	if got := os.Getenv(EnvChatID); got != "already-set" {
		t.Fatalf(".env must not override the environment, CHAT_ID = %q", got)
	}
}

func TestCheckTokens(t *testing.T) {
	var buf bytes.Buffer
	log := logx.NewJSON(&buf, "debug")

	cfg := Default()
	cfg.API.Token = "api"
	if CheckTokens(cfg, log) {
		t.Fatal("CheckTokens should fail with two missing credentials")
	}
	out := buf.String()
	if strings.Count(out, `"level":"critical"`) != 2 {
		t.Fatalf("want 2 critical lines, got: %s", out)
	}
	for _, name := range []string{EnvMessagingToken, EnvChatID} {
		if !strings.Contains(out, `"name":"`+name+`"`) {
			t.Fatalf("critical log does not name %s: %s", name, out)
		}
	}
	if strings.Contains(out, `"name":"`+EnvAPIToken+`"`) {
		t.Fatalf("present credential reported missing: %s", out)
	}

	err := MissingTokens(cfg, logx.Nop())
	if !errors.Is(err, homework.ErrCredentialMissing) {
		t.Fatalf("err = %v", err)
	}

	cfg.Telegram.Token, cfg.Telegram.ChatID = "tg", "1"
	buf.Reset()
	if !CheckTokens(cfg, log) || buf.Len() != 0 {
		t.Fatalf("all credentials present: logs=%s", buf.String())
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	d, err := ParseDurationOrDefault("x", "", 3*time.Second)
	if err != nil || d != 3*time.Second {
		t.Fatalf("d=%v err=%v", d, err)
	}
	d, err = ParseDurationOrDefault("x", "2m", time.Second)
	if err != nil || d != 2*time.Minute {
		t.Fatalf("d=%v err=%v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("negative duration accepted")
	}
}
