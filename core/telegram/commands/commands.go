package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden keeps the command out of the Telegram command menu.
	Hidden bool
	// Preempt commands are matched before a conversation in progress sees the message.
	Preempt bool
	Aliases []string
}
