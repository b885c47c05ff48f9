package handlers

import (
	"github.com/m3rciful/quizbot/bot/assets"
	"github.com/m3rciful/quizbot/bot/quiz"
	"github.com/m3rciful/quizbot/core/telegram/format"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
	"github.com/m3rciful/quizbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// resource returns a handler delivering res. Files are read in full before sending.
func (h *Handlers) resource(res assets.Resource) tele.HandlerFunc {
	return func(c tele.Context) error {
		p, err := assets.Open(res)
		if err != nil {
			return err
		}
		html := &tele.SendOptions{ParseMode: tele.ModeHTML}
		caption := format.Caption(res.Caption, "")
		switch res.Kind {
		case assets.KindPhoto:
			return tghelpers.SendPhoto(c, p.Data, caption, html)
		case assets.KindDocument:
			return tghelpers.SendDocument(c, p.Data, p.Name, caption, html)
		case assets.KindVideo:
			return tghelpers.SendVideo(c, p.Data, p.Name, caption, html)
		case assets.KindLink:
			return tghelpers.SendHTML(c, format.Caption(res.Caption, res.URL))
		default:
			return tghelpers.SendText(c, res.Text)
		}
	}
}

func questionCaption(q quiz.Question) string {
	return format.Bold(q.Title) + "."
}

func answerKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(keyboard.ChunkLabels(quiz.AnswerTokens, len(quiz.AnswerTokens))...)
}

func removeKeyboardMarkup() *tele.ReplyMarkup {
	return keyboard.RemoveKeyboard()
}
