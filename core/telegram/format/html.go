// Package format renders text for Telegram's HTML parse mode.
package format

import (
	"html"
	"strings"
)

// Escape escapes text for HTML parse mode.
func Escape(text string) string {
	return html.EscapeString(text)
}

// Bold wraps escaped text in <b>.
func Bold(text string) string {
	return "<b>" + Escape(text) + "</b>"
}

// Caption builds an HTML caption with a bold title and an optional escaped body.
func Caption(title, body string) string {
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	switch {
	case title == "":
		return Escape(body)
	case body == "":
		return Bold(title)
	}
	return Bold(title) + "\n" + Escape(body)
}
