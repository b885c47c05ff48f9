package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is a per-chat conversation that claims free text while in progress.
type FSM interface {
	InProgress(chatID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour of the text routes.
type TextOptions struct {
	// NonText answers messages without a text payload.
	NonText tele.HandlerFunc
	// OnError answers the user after a handler failed. The error is already logged.
	OnError func(c tele.Context, err error) error
}

// nonTextEndpoints are the telebot events for messages that carry no text.
var nonTextEndpoints = []string{
	tele.OnMedia,
	tele.OnContact,
	tele.OnLocation,
	tele.OnVenue,
	tele.OnDice,
	tele.OnPoll,
}

// TextRoutes builds the routes for every incoming message. Text is classified in this order,
// first match wins, comparing the whole message without case:
//
//  1. commands flagged Preempt;
//  2. the FSM, when a conversation is in progress for the chat;
//  3. the remaining commands;
//  4. the registry text fallback.
//
// Messages without text go to NonText. A handler error or panic is logged once
// and answered through OnError; it never reaches the poller.
func TextRoutes(fsm FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		name, h := classify(c, fsm, reg)
		if h == nil {
			logHandlerSummary(c, "unknown_text", start, "skip", nil)
			return nil
		}
		return guard(c, name, start, h, opts.OnError)
	}

	routes := []tg.Route{{Endpoint: tele.OnText, Handler: textHandler}}
	if opts.NonText != nil {
		nonText := func(c tele.Context) error {
			return guard(c, "non_text", time.Now(), opts.NonText, opts.OnError)
		}
		for _, ep := range nonTextEndpoints {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: nonText})
		}
	}
	if reg != nil {
		logWiring(reg, len(routes))
	}
	return routes
}

func classify(c tele.Context, fsm FSM, reg *tg.Registry) (string, tele.HandlerFunc) {
	text := c.Text()
	if reg != nil {
		if name, h, ok := matchCommand(reg, text, true); ok {
			return name, h
		}
	}
	if fsm != nil && fsm.InProgress(tghelpers.ChatID(c)) {
		return "fsm", fsm.ManagerHandler
	}
	if reg != nil {
		if name, h, ok := matchCommand(reg, text, false); ok {
			return name, h
		}
		if fb := reg.TextFallback(); fb != nil {
			return "fallback", fb
		}
	}
	return "", nil
}

// guard runs h with panic recovery and the summary log line, then reports failures to the user.
func guard(c tele.Context, name string, start time.Time, h tele.HandlerFunc, onError func(tele.Context, error) error) error {
	err := handleWithSummary(c, name, start, func() error {
		return middleware.RecoverMiddleware(h)(c)
	})
	if err == nil || onError == nil {
		return err
	}
	if replyErr := onError(c, err); replyErr != nil {
		logger.Warn(tghelpers.BuildContext(c), "tg", "handler.apology_failed",
			slog.String("status", "fail"),
			slog.String("err", replyErr.Error()),
		)
	}
	return nil
}
