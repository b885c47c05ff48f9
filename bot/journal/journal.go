// Package journal records finished and stopped quiz runs.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/quizbot/core/logger"
)

// Outcome values stored with a run.
const (
	OutcomeFinished = "finished"
	OutcomeStopped  = "stopped"
)

// Run is one journal row.
type Run struct {
	ID         string    `db:"id" json:"id"`
	ChatID     int64     `db:"chat_id" json:"chat_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Outcome    string    `db:"outcome" json:"outcome"`
	Correct    int       `db:"correct" json:"correct"`
	Answered   int       `db:"answered" json:"answered"`
	Total      int       `db:"total" json:"total"`
	Grade      int       `db:"grade" json:"grade"`
	StartedAt  time.Time `db:"-" json:"started_at"`
	FinishedAt time.Time `db:"-" json:"finished_at"`
}

// row mirrors Run with unix timestamps so the schema stays portable across drivers.
type row struct {
	Run
	StartedUnix  int64 `db:"started_at"`
	FinishedUnix int64 `db:"finished_at"`
}

// Journal persists quiz runs.
type Journal interface {
	Record(ctx context.Context, run Run) (Run, error)
	History(ctx context.Context, chatID int64, limit int) ([]Run, error)
}

type sqlJournal struct {
	db *sqlx.DB
}

// New returns a journal backed by db. A nil db yields a journal that records nothing.
func New(db *sqlx.DB) Journal {
	if db == nil {
		return Nop{}
	}
	return &sqlJournal{db: db}
}

// Record stores run, assigning an id when it has none.
func (j *sqlJournal) Record(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt
	}
	r := row{Run: run, StartedUnix: run.StartedAt.Unix(), FinishedUnix: run.FinishedAt.Unix()}

	const q = `INSERT INTO quiz_runs
		(id, chat_id, user_id, outcome, correct, answered, total, grade, started_at, finished_at)
		VALUES (:id, :chat_id, :user_id, :outcome, :correct, :answered, :total, :grade, :started_at, :finished_at)`
	start := time.Now()
	if _, err := j.db.NamedExecContext(ctx, q, r); err != nil {
		logger.Error(ctx, "journal", "journal.record",
			slog.String("status", "fail"),
			slog.Int64("chat_id", run.ChatID),
			slog.String("err", err.Error()),
		)
		return Run{}, fmt.Errorf("journal: record run: %w", err)
	}
	logger.Debug(ctx, "journal", "journal.record",
		slog.String("status", "ok"),
		slog.String("run_id", run.ID),
		slog.Int64("chat_id", run.ChatID),
		slog.String("outcome", run.Outcome),
		slog.Duration("duration", time.Since(start)),
	)
	return run, nil
}

// History returns the latest runs of a chat, newest first. limit <= 0 means 20.
func (j *sqlJournal) History(ctx context.Context, chatID int64, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := j.db.Rebind(`SELECT id, chat_id, user_id, outcome, correct, answered, total, grade,
		started_at, finished_at
		FROM quiz_runs WHERE chat_id = ? ORDER BY finished_at DESC, id LIMIT ?`)

	var rows []row
	if err := j.db.SelectContext(ctx, &rows, q, chatID, limit); err != nil {
		return nil, fmt.Errorf("journal: history for chat %d: %w", chatID, err)
	}
	runs := make([]Run, len(rows))
	for i, r := range rows {
		run := r.Run
		run.StartedAt = time.Unix(r.StartedUnix, 0).UTC()
		run.FinishedAt = time.Unix(r.FinishedUnix, 0).UTC()
		runs[i] = run
	}
	return runs, nil
}

// Nop discards every run.
type Nop struct{}

// Record returns run unchanged.
func (Nop) Record(_ context.Context, run Run) (Run, error) { return run, nil }

// History returns nothing.
func (Nop) History(context.Context, int64, int) ([]Run, error) { return nil, nil }
