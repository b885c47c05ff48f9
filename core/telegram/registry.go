package telegram

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds bot commands keyed by their lower-case name.
type Registry struct {
	commands     map[string]commands.Command
	aliases      map[string]string
	textFallback tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		aliases:  make(map[string]string),
	}
}

// NormalizeCommand lower-cases name, trims it and ensures the leading slash.
func NormalizeCommand(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

// RegisterCommand adds a new command. Invalid and duplicate registrations are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) bool {
	raw := name
	name = NormalizeCommand(name)
	if r == nil || name == "" || cmd.Handler == nil {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("name", raw),
			slog.String("cause", "invalid"),
		)
		return false
	}
	if !strings.HasPrefix(strings.TrimSpace(raw), "/") {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("name", raw),
			slog.String("cause", "no_slash_prefix"),
		)
		return false
	}
	if _, _, exists := r.LookupCommand(name); exists {
		logger.Warn(context.Background(), "tg.wire", "register.command.duplicate",
			slog.String("name", name),
		)
		return false
	}
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases {
		if a := NormalizeCommand(alias); a != "" && a != name {
			r.aliases[a] = name
		}
	}
	return true
}

// ListCommands returns the menu entries, optionally without hidden or undescribed commands.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && (meta.Hidden || meta.Description == "") {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand matches the whole text against command names and aliases, ignoring case.
// A trailing @botname, as Telegram adds in groups, is ignored. It returns the canonical name.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	text = strings.TrimSpace(text)
	if r == nil || !strings.HasPrefix(text, "/") || strings.ContainsAny(text, " \t\n") {
		return "", commands.Command{}, false
	}
	if at := strings.IndexByte(text, '@'); at > 0 {
		text = text[:at]
	}
	name := NormalizeCommand(text)
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", commands.Command{}, false
	}
	return name, cmd, true
}

// Commands returns all registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// SetTextFallback sets the handler for text that matches nothing.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the current text fallback handler.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// InitBotCommands publishes the visible commands as the Telegram command menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return
	}
	if err := bot.SetCommands(list); err != nil {
		logger.Error(context.Background(), "tg.wire", "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Info(context.Background(), "tg.wire", "register.commands.set",
		slog.Int("commands", len(list)),
	)
}
