package app

import (
	"errors"
	"fmt"

	"github.com/m3rciful/quizbot/bot/assets"
	botconfig "github.com/m3rciful/quizbot/bot/config"
	"github.com/m3rciful/quizbot/bot/i18n"
	"github.com/m3rciful/quizbot/bot/quiz"
)

// Report summarizes a configuration check.
type Report struct {
	Questions int      `json:"questions"`
	RunLength int      `json:"run_length"`
	Resources int      `json:"resources"`
	Problems  []string `json:"problems,omitempty"`
}

// Check validates the bank, the run length and every file the bot would send
// without connecting to Telegram. All asset problems are collected.
func Check(cfg *botconfig.Config) (Report, error) {
	var r Report
	if err := i18n.Init(cfg.Quiz.Lang); err != nil {
		return r, err
	}
	bank, err := quiz.LoadBank(cfg.Quiz.BankPath)
	if err != nil {
		return r, err
	}
	r.Questions = bank.Len()
	if r.RunLength, err = cfg.RunLength(bank.Len()); err != nil {
		return r, err
	}
	catalog, err := assets.NewCatalog(cfg.Resources, cfg.Dir)
	if err != nil {
		return r, err
	}
	r.Resources = len(catalog.Entries())

	for _, q := range bank.Questions() {
		if err := assets.Check(assets.ForQuestion(q)); err != nil {
			r.Problems = append(r.Problems, fmt.Sprintf("question %d: %v", q.Index, err))
		}
	}
	for _, e := range catalog.Entries() {
		res, _ := catalog.Resolve(e.Command)
		if err := assets.Check(res); err != nil {
			r.Problems = append(r.Problems, fmt.Sprintf("resource %s: %v", e.Command, err))
		}
	}
	if len(r.Problems) > 0 {
		return r, errors.New("check: some assets are unavailable")
	}
	return r, nil
}
