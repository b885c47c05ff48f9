// Package handlers turns Telegram updates into quiz transitions and replies.
package handlers

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/quizbot/bot/assets"
	"github.com/m3rciful/quizbot/bot/i18n"
	"github.com/m3rciful/quizbot/bot/journal"
	"github.com/m3rciful/quizbot/bot/quiz"
	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// Deps are the collaborators of the handlers.
type Deps struct {
	Machine *quiz.Machine
	Catalog *assets.Catalog
	// Journal receives finished and stopped runs; nil disables recording.
	Journal journal.Journal
	// AnswerKeyboard attaches the answer buttons to every question.
	AnswerKeyboard bool
}

// Handlers implements the quiz conversation.
type Handlers struct {
	machine  *quiz.Machine
	catalog  *assets.Catalog
	journal  journal.Journal
	keyboard bool
	now      func() time.Time
}

// New wires the handlers.
func New(d Deps) *Handlers {
	j := d.Journal
	if j == nil {
		j = journal.Nop{}
	}
	return &Handlers{
		machine:  d.Machine,
		catalog:  d.Catalog,
		journal:  j,
		keyboard: d.AnswerKeyboard,
		now:      time.Now,
	}
}

// Register adds the quiz commands, the resource commands and the unknown-text fallback.
// /test and /stop are matched before answers so they work mid-quiz.
func (h *Handlers) Register(reg *tg.Registry) {
	loc := i18n.For("")
	reg.RegisterCommand("/test", commands.Command{Handler: h.Test, Description: loc.T("CmdTest"), Preempt: true})
	reg.RegisterCommand("/stop", commands.Command{Handler: h.Stop, Description: loc.T("CmdStop"), Preempt: true})
	reg.RegisterCommand("/start", commands.Command{Handler: h.Start, Description: loc.T("CmdStart")})
	reg.RegisterCommand("/help", commands.Command{Handler: h.Help, Description: loc.T("CmdHelp")})
	reg.RegisterCommand("/result", commands.Command{Handler: h.Result, Description: loc.T("CmdResult")})

	for _, e := range h.catalog.Entries() {
		res, _ := h.catalog.Resolve(e.Command)
		reg.RegisterCommand(e.Command, commands.Command{
			Handler:     h.resource(res),
			Description: e.Description,
			Hidden:      e.Description == "",
		})
	}
	reg.SetTextFallback(h.Unknown)
}

// Routes returns the bot routes over reg.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	return router.TextRoutes(h, reg, router.TextOptions{
		NonText: h.NonText,
		OnError: h.Apology,
	})
}

// InProgress reports whether the chat is answering questions.
func (h *Handlers) InProgress(chatID int64) bool {
	return h.machine.InProgress(chatID)
}

// ManagerHandler grades free text while a quiz is in progress.
func (h *Handlers) ManagerHandler(c tele.Context) error {
	return h.Answer(c)
}

// Test starts a new run and asks the first question.
func (h *Handlers) Test(c tele.Context) error {
	loc := localizer(c)
	q, tally, err := h.machine.Start(tghelpers.ChatID(c))
	if err != nil {
		return err
	}
	logger.Info(tghelpers.BuildContext(c), "quiz", "quiz.started",
		slog.Int("total", tally.Total),
		slog.Int("runs", tally.Runs),
	)
	if err := tghelpers.SendText(c, loc.Tp("TestIntro", tally.Total)); err != nil {
		return err
	}
	tghelpers.SetOutcome(c, "ok")
	return h.sendQuestion(c, q)
}

// Stop ends the run and reports the tally.
func (h *Handlers) Stop(c tele.Context) error {
	loc := localizer(c)
	res := h.machine.Stop(tghelpers.ChatID(c))
	if res.Tally.Runs == 0 {
		return tghelpers.SendText(c, loc.T("ResultNone"), h.removeKeyboard())
	}
	if res.WasActive {
		tghelpers.SetOutcome(c, "stopped")
		h.record(c, journal.OutcomeStopped, res.Tally)
	}
	return tghelpers.SendText(c, loc.T("Stopped")+"\n"+summary(loc, res.Tally), h.removeKeyboard())
}

// Answer grades the text as an answer to the current question.
func (h *Handlers) Answer(c tele.Context) error {
	loc := localizer(c)
	out, err := h.machine.Submit(tghelpers.ChatID(c), c.Text())
	if errors.Is(err, quiz.ErrNoActiveQuiz) {
		return h.Unknown(c)
	}
	if err != nil {
		return err
	}

	tghelpers.SetOutcome(c, out.Kind.String())
	ctx := tghelpers.BuildContext(c)
	switch out.Kind {
	case quiz.OutcomeRejected:
		logger.Debug(ctx, "quiz", "quiz.answer", slog.String("outcome", "rejected"))
		return tghelpers.SendText(c, loc.Td("InvalidAnswer", map[string]any{
			"Allowed": strings.Join(quiz.AnswerTokens, ", "),
		}))
	case quiz.OutcomeContinued:
		logger.Debug(ctx, "quiz", "quiz.answer",
			slog.String("outcome", "continued"),
			slog.Bool("correct", out.Right),
			slog.Int("question", out.Next.Index),
		)
		if err := tghelpers.SendText(c, feedback(loc, out)); err != nil {
			return err
		}
		return h.sendQuestion(c, out.Next)
	case quiz.OutcomeFinished:
		logger.Info(ctx, "quiz", "quiz.finished",
			slog.String("outcome", "finished"),
			slog.Int("correct", out.Tally.Correct),
			slog.Int("total", out.Tally.Total),
			slog.Int("grade", out.Tally.Grade()),
		)
		h.record(c, journal.OutcomeFinished, out.Tally)
		if err := tghelpers.SendText(c, feedback(loc, out)); err != nil {
			return err
		}
		return tghelpers.SendText(c, loc.T("TestFinished")+"\n"+summary(loc, out.Tally), h.removeKeyboard())
	}
	return nil
}

// Start greets the user.
func (h *Handlers) Start(c tele.Context) error {
	return tghelpers.SendText(c, localizer(c).T("Welcome"))
}

// Help lists the commands, resource commands included.
func (h *Handlers) Help(c tele.Context) error {
	loc := localizer(c)
	var b strings.Builder
	b.WriteString(loc.T("Help"))
	for _, e := range h.catalog.Entries() {
		if e.Description == "" {
			continue
		}
		b.WriteByte('\n')
		b.WriteString(loc.Td("HelpResource", map[string]any{"Command": e.Command, "Description": e.Description}))
	}
	return tghelpers.SendText(c, b.String())
}

// Result reports the current or last run.
func (h *Handlers) Result(c tele.Context) error {
	loc := localizer(c)
	t := h.machine.Result(tghelpers.ChatID(c))
	switch {
	case t.Runs == 0:
		return tghelpers.SendText(c, loc.T("ResultNone"))
	case t.Active:
		return tghelpers.SendText(c, loc.Td("ResultProgress", map[string]any{
			"Current": t.Current,
			"Total":   t.Total,
			"Correct": t.Correct,
		}))
	}
	return tghelpers.SendText(c, summary(loc, t))
}

// Unknown answers text that matched nothing.
func (h *Handlers) Unknown(c tele.Context) error {
	tghelpers.SetOutcome(c, "rejected")
	return tghelpers.SendText(c, localizer(c).T("Unknown"))
}

// NonText answers messages without text.
func (h *Handlers) NonText(c tele.Context) error {
	tghelpers.SetOutcome(c, "rejected")
	return tghelpers.SendText(c, localizer(c).T("TextOnly"))
}

// Apology is the single reply to a failed update. The error is logged by the router.
func (h *Handlers) Apology(c tele.Context, _ error) error {
	return tghelpers.SendText(c, localizer(c).T("InternalError"))
}

// RateLimited tells the user to slow down.
func (h *Handlers) RateLimited(c tele.Context) error {
	return tghelpers.SendText(c, localizer(c).T("RateLimited"))
}

func (h *Handlers) sendQuestion(c tele.Context, q quiz.Question) error {
	p, err := assets.Open(assets.ForQuestion(q))
	if err != nil {
		return err
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if h.keyboard {
		opts.ReplyMarkup = answerKeyboard()
	}
	return tghelpers.SendPhoto(c, p.Data, questionCaption(q), opts)
}

func (h *Handlers) removeKeyboard() *tele.SendOptions {
	if !h.keyboard {
		return nil
	}
	return &tele.SendOptions{ReplyMarkup: removeKeyboardMarkup()}
}

// record stores a run with at least one answer. The journal logs its own failures.
func (h *Handlers) record(c tele.Context, outcome string, t quiz.Tally) {
	if t.Answered == 0 {
		return
	}
	_, _ = h.journal.Record(tghelpers.BuildContext(c), journal.Run{
		ChatID:     t.ChatID,
		UserID:     tghelpers.UserID(c),
		Outcome:    outcome,
		Correct:    t.Correct,
		Answered:   t.Answered,
		Total:      t.Total,
		Grade:      t.Grade(),
		StartedAt:  t.StartedAt,
		FinishedAt: h.now(),
	})
}

func localizer(c tele.Context) *i18n.Localizer {
	return i18n.For(tghelpers.LanguageCode(c))
}

func feedback(loc *i18n.Localizer, out quiz.Outcome) string {
	if out.Right {
		return loc.T("AnswerRight")
	}
	return loc.Td("AnswerWrong", map[string]any{"Answer": out.Expected})
}

func summary(loc *i18n.Localizer, t quiz.Tally) string {
	return loc.Td("Summary", map[string]any{
		"Correct": t.Correct,
		"Total":   t.Total,
		"Grade":   t.Grade(),
	})
}
