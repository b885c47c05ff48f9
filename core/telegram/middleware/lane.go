package middleware

import (
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Lanes runs the handlers of each chat one at a time, in the order the updates
// were handed over, while different chats proceed in parallel.
//
// The bot must process updates synchronously so that handing over happens in
// arrival order; Middleware then returns immediately and the chat's lane goroutine
// runs the rest of the chain. A lane goroutine exits once its queue is empty.
type Lanes struct {
	onError func(error, tele.Context)

	mu    sync.Mutex
	lanes map[int64]*lane
	wg    sync.WaitGroup
}

type lane struct {
	queue []func()
}

// NewLanes creates an empty lane set. onError receives errors returned by handlers.
func NewLanes(onError func(error, tele.Context)) *Lanes {
	return &Lanes{onError: onError, lanes: make(map[int64]*lane)}
}

// Middleware hands the update over to its chat's lane. Updates without a chat run inline.
func (l *Lanes) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		chat := c.Chat()
		if chat == nil {
			return next(c)
		}
		l.Submit(chat.ID, func() {
			if err := next(c); err != nil && l.onError != nil {
				l.onError(err, c)
			}
		})
		return nil
	}
}

// Submit appends fn to the lane of key, starting the lane goroutine when idle.
func (l *Lanes) Submit(key int64, fn func()) {
	l.mu.Lock()
	ln, ok := l.lanes[key]
	if ok {
		ln.queue = append(ln.queue, fn)
		l.mu.Unlock()
		return
	}
	ln = &lane{queue: []func(){fn}}
	l.lanes[key] = ln
	l.wg.Add(1)
	l.mu.Unlock()

	go l.drain(key, ln)
}

func (l *Lanes) drain(key int64, ln *lane) {
	defer l.wg.Done()
	for {
		l.mu.Lock()
		if len(ln.queue) == 0 {
			delete(l.lanes, key)
			l.mu.Unlock()
			return
		}
		fn := ln.queue[0]
		ln.queue[0] = nil
		ln.queue = ln.queue[1:]
		l.mu.Unlock()

		fn()
	}
}

// Active reports how many chats currently have queued or running handlers.
func (l *Lanes) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}

// Wait blocks until every lane has drained.
func (l *Lanes) Wait() {
	l.wg.Wait()
}
