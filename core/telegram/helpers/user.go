package helpers

import (
	tele "gopkg.in/telebot.v4"
)

// ChatID returns the id of the chat the update belongs to, or 0.
func ChatID(c tele.Context) int64 {
	if c == nil {
		return 0
	}
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

// UserID returns the sender id, or 0.
func UserID(c tele.Context) int64 {
	if c == nil {
		return 0
	}
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// LanguageCode returns the sender's Telegram client language.
func LanguageCode(c tele.Context) string {
	if c == nil {
		return ""
	}
	if u := c.Sender(); u != nil {
		return u.LanguageCode
	}
	return ""
}

const outcomeKey = "handler_outcome"

// SetOutcome records a domain outcome for the handler summary log line.
func SetOutcome(c tele.Context, outcome string) {
	if c != nil && outcome != "" {
		c.Set(outcomeKey, outcome)
	}
}

// Outcome returns the value recorded by SetOutcome.
func Outcome(c tele.Context) string {
	if c == nil {
		return ""
	}
	s, _ := c.Get(outcomeKey).(string)
	return s
}
