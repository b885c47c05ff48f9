package journal

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/migrations"
)

func openTestJournal(t *testing.T) Journal {
	t.Helper()
	cfg := database.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "quiz.db")}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := database.RunMigrations(cfg, migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db)
}

func TestRecordAndHistory(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := j.Record(ctx, Run{
		ChatID: 42, UserID: 7, Outcome: OutcomeStopped,
		Correct: 1, Answered: 2, Total: 5, Grade: 2,
		StartedAt: base, FinishedAt: base.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := j.Record(ctx, Run{
		ChatID: 42, UserID: 7, Outcome: OutcomeFinished,
		Correct: 5, Answered: 5, Total: 5, Grade: 5,
		StartedAt: base.Add(time.Hour), FinishedAt: base.Add(2 * time.Hour),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := j.Record(ctx, Run{ChatID: 99, Outcome: OutcomeFinished, Answered: 1, Total: 1, Grade: 2}); err != nil {
		t.Fatalf("Record other chat: %v", err)
	}

	runs, err := j.History(ctx, 42, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("History len = %d, want 2", len(runs))
	}
	if runs[0].Outcome != OutcomeFinished || runs[0].Grade != 5 {
		t.Fatalf("newest run = %+v", runs[0])
	}
	got := runs[1]
	if got.ID != first.ID || got.UserID != 7 || got.Correct != 1 || got.Answered != 2 || got.Total != 5 {
		t.Fatalf("oldest run = %+v, want %+v", got, first)
	}
	if !got.StartedAt.Equal(base) || !got.FinishedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("timestamps = %v..%v", got.StartedAt, got.FinishedAt)
	}

	runs, err = j.History(ctx, 42, 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("History limit 1 = %d runs, err %v", len(runs), err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	cfg := database.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "quiz.db")}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := database.RunMigrations(cfg, migrations.FS); err != nil {
			t.Fatalf("migrate pass %d: %v", i+1, err)
		}
	}
}

func TestNopJournal(t *testing.T) {
	j := New(nil)
	run, err := j.Record(context.Background(), Run{ChatID: 1})
	if err != nil || run.ChatID != 1 {
		t.Fatalf("Nop.Record = %+v, %v", run, err)
	}
	runs, err := j.History(context.Background(), 1, 10)
	if err != nil || len(runs) != 0 {
		t.Fatalf("Nop.History = %v, %v", runs, err)
	}
}

func TestRecordFailureIsLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger.L = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { logger.L = nil })

	cfg := database.Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "empty.db")}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := New(db).Record(context.Background(), Run{ChatID: 42, Outcome: OutcomeFinished, Answered: 1, Total: 1}); err == nil {
		t.Fatal("expected error without the quiz_runs table")
	}
	if n := strings.Count(buf.String(), `"event":"journal.record"`); n != 1 {
		t.Fatalf("journal.record logged %d times, want 1:\n%s", n, buf.String())
	}
}
