package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `
telegram:
  token: "123:abc"
quiz:
  bank_path: questions.json
  questions: 3
resources:
  - command: /rules
    description: Rules
    kind: document
    path: docs/rules.pdf
  - command: /site
    kind: link
    url: https://example.com
database:
  driver: sqlite
  path: data/runs.db
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadResolvesPathsAndDefaults(t *testing.T) {
	path := writeConfig(t, sample)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := filepath.Dir(path)

	if cfg.Quiz.BankPath != filepath.Join(dir, "questions.json") {
		t.Errorf("bank path = %q", cfg.Quiz.BankPath)
	}
	if cfg.Database.Path != filepath.Join(dir, "data/runs.db") {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Quiz.Lang != "ru" {
		t.Errorf("lang = %q, want ru", cfg.Quiz.Lang)
	}
	if cfg.Telegram.RunMode != "longpoll" {
		t.Errorf("run mode = %q", cfg.Telegram.RunMode)
	}
	if len(cfg.Resources) != 2 || cfg.Resources[0].Command != "/rules" {
		t.Errorf("resources = %+v", cfg.Resources)
	}
	if cfg.CoreConfig().Telegram.Token != "123:abc" {
		t.Errorf("core config not shared")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "999:env")
	t.Setenv("QUIZ_QUESTIONS", "2")
	t.Setenv("QUIZ_LANG", "EN")

	cfg, err := Load(writeConfig(t, sample))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "999:env" {
		t.Errorf("token = %q", cfg.Telegram.Token)
	}
	if cfg.Quiz.Questions != 2 {
		t.Errorf("questions = %d", cfg.Quiz.Questions)
	}
	if cfg.Quiz.Lang != "en" {
		t.Errorf("lang = %q", cfg.Quiz.Lang)
	}
}

func TestLoadRejectsMissingBank(t *testing.T) {
	_, err := Load(writeConfig(t, "telegram:\n  token: x\n"))
	if err == nil || !strings.Contains(err.Error(), "quiz.bank_path") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunLength(t *testing.T) {
	cfg := &Config{}
	if n, err := cfg.RunLength(15); err != nil || n != 15 {
		t.Fatalf("whole bank: n=%d err=%v", n, err)
	}
	cfg.Quiz.Questions = 10
	if n, err := cfg.RunLength(15); err != nil || n != 10 {
		t.Fatalf("subset: n=%d err=%v", n, err)
	}
	cfg.Quiz.Questions = 16
	if _, err := cfg.RunLength(15); err == nil {
		t.Fatal("expected an error when the run is longer than the bank")
	}
}
