package router

import (
	"log/slog"

	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// matchCommand looks text up in the registry and keeps it only when its Preempt flag equals preempt.
func matchCommand(reg *tg.Registry, text string, preempt bool) (string, tele.HandlerFunc, bool) {
	key, cmd, ok := reg.LookupCommand(text)
	if !ok || cmd.Handler == nil || cmd.Preempt != preempt {
		return "", nil, false
	}
	return normalizeHandlerName(key), cmd.Handler, true
}

func logWiring(reg *tg.Registry, routes int) {
	preempt := 0
	for _, cmd := range reg.Commands() {
		if cmd.Preempt {
			preempt++
		}
	}
	logger.Info(logger.Background(), "tg.wire", "tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(reg.Commands())),
		slog.Int("preempt", preempt),
		slog.Int("routes", routes),
	)
}
