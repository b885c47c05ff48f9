package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	botconfig "github.com/m3rciful/quizbot/bot/config"
	"github.com/m3rciful/quizbot/core/bootstrap"
	coreconfig "github.com/m3rciful/quizbot/core/config"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func testConfig(t *testing.T, extra string) *botconfig.Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "questions.json", `{"Questions": {
		"1": {"Path": "q1.png", "Title": "First", "Answer": "1"},
		"2": {"Path": "q2.png", "Title": "Second", "Answer": "2"}
	}}`)
	writeFile(t, dir, "q1.png", "png")
	writeFile(t, dir, "q2.png", "png")
	writeFile(t, dir, "config.yaml", "telegram:\n  token: \"1:x\"\nquiz:\n  bank_path: questions.json\n"+extra)

	cfg, err := botconfig.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func noLogger(*coreconfig.Config) error { return nil }

func TestNewWiresJournalAndHealth(t *testing.T) {
	cfg := testConfig(t, "database:\n  driver: sqlite\n  path: runs.db\nhealth:\n  listen: 127.0.0.1:0\n")

	a, err := New(cfg, bootstrap.Options{LoggerInit: noLogger})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	if a.infra.DB == nil {
		t.Fatal("database not connected")
	}
	if len(a.Services()) != 1 {
		t.Fatalf("services = %d, want the health server", len(a.Services()))
	}
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	if len(opts.Routes) == 0 || opts.Registry == nil {
		t.Fatal("routes not wired")
	}
	if _, cmd, ok := opts.Registry.LookupCommand("/test"); !ok || !cmd.Preempt {
		t.Fatal("/test is not a preempting command")
	}
}

func TestNewRejectsRunLongerThanBank(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Quiz.Questions = 3
	_, err := New(cfg, bootstrap.Options{LoggerInit: noLogger})
	if err == nil || !strings.Contains(err.Error(), "only 2 questions") {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckReportsMissingAssets(t *testing.T) {
	cfg := testConfig(t, "resources:\n  - command: /rules\n    kind: document\n    path: rules.pdf\n")

	r, err := Check(cfg)
	if err == nil {
		t.Fatal("expected missing rules.pdf to fail the check")
	}
	if r.Questions != 2 || r.RunLength != 2 || r.Resources != 1 {
		t.Fatalf("report = %+v", r)
	}
	if len(r.Problems) != 1 || !strings.Contains(r.Problems[0], "/rules") {
		t.Fatalf("problems = %q", r.Problems)
	}

	writeFile(t, cfg.Dir, "rules.pdf", "pdf")
	if _, err := Check(cfg); err != nil {
		t.Fatalf("Check after fix: %v", err)
	}
}
