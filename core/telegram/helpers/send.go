package helpers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// With no dispatcher the helpers send synchronously and return transport errors.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, ChatID(c), action, endpoint, run)
	if errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return run()
	}
	// Sends never bypass a full queue.
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

func firstOpts(opts []*tele.SendOptions) *tele.SendOptions {
	if len(opts) > 0 && opts[0] != nil {
		return opts[0]
	}
	return &tele.SendOptions{}
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	o := firstOpts(opts)
	return sendAsync(c, "send.text", "sendMessage", func() error {
		return c.Send(text, o)
	})
}

// SendHTML sends text with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return SendText(c, text, opts)
}

// SendPhoto uploads an in-memory image with an optional caption.
func SendPhoto(c tele.Context, data []byte, caption string, opts ...*tele.SendOptions) error {
	o := firstOpts(opts)
	return sendAsync(c, "send.photo", "sendPhoto", func() error {
		return c.Send(&tele.Photo{File: tele.FromReader(bytes.NewReader(data)), Caption: caption}, o)
	})
}

// SendDocument uploads an in-memory file under fileName.
func SendDocument(c tele.Context, data []byte, fileName, caption string, opts ...*tele.SendOptions) error {
	o := firstOpts(opts)
	return sendAsync(c, "send.document", "sendDocument", func() error {
		return c.Send(&tele.Document{
			File:     tele.FromReader(bytes.NewReader(data)),
			FileName: fileName,
			Caption:  caption,
		}, o)
	})
}

// SendVideo uploads an in-memory video under fileName.
func SendVideo(c tele.Context, data []byte, fileName, caption string, opts ...*tele.SendOptions) error {
	o := firstOpts(opts)
	return sendAsync(c, "send.video", "sendVideo", func() error {
		return c.Send(&tele.Video{
			File:     tele.FromReader(bytes.NewReader(data)),
			FileName: fileName,
			Caption:  caption,
		}, o)
	})
}
