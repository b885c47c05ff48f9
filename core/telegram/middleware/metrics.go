package middleware

import (
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

const countersKey = "send_counters"

// sendCounters is shared between the handler and the sender workers delivering its messages.
type sendCounters struct {
	messages atomic.Int32
	media    atomic.Int32
	kb       atomic.Bool
}

// countingContext wraps tele.Context to count delivered messages.
type countingContext struct {
	tele.Context
	counters *sendCounters
}

func (m countingContext) count(what any, opts []any) {
	m.counters.messages.Add(1)
	switch what.(type) {
	case *tele.Photo, *tele.Document, *tele.Video:
		m.counters.media.Add(1)
	}
	if hasKeyboard(opts) {
		m.counters.kb.Store(true)
	}
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send and counts the message once delivered.
func (m countingContext) Send(what any, opts ...any) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.count(what, opts)
	}
	return err
}

// Reply proxies tele.Context.Reply and counts the message once delivered.
func (m countingContext) Reply(what any, opts ...any) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.count(what, opts)
	}
	return err
}

// MessageMetricsMiddleware counts what the handler sends. Sends queued on the dispatcher
// are counted when they complete, which may be after the handler summary was logged.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		counters := &sendCounters{}
		c.Set(countersKey, counters)
		return next(countingContext{Context: c, counters: counters})
	}
}

// GetCounters returns how many messages were delivered for the update and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	counters, ok := c.Get(countersKey).(*sendCounters)
	if !ok {
		return 0, false
	}
	return int(counters.messages.Load()), counters.kb.Load()
}

// MediaCount returns how many of the delivered messages were photos, documents or videos.
func MediaCount(c tele.Context) int {
	counters, ok := c.Get(countersKey).(*sendCounters)
	if !ok {
		return 0
	}
	return int(counters.media.Load())
}
