// Package i18n renders user-facing bot texts from embedded locale files.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/m3rciful/quizbot/core/logger"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	mu          sync.RWMutex
	bundle      *i18n.Bundle
	defaultLang = "ru"
)

// Init loads every embedded locale and sets the fallback language.
func Init(lang string) error {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		lang = "ru"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("i18n: parse language %q: %w", lang, err)
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return fmt.Errorf("i18n: read locales: %w", err)
	}
	want, _ := tag.Base()
	supported := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return fmt.Errorf("i18n: read %s: %w", e.Name(), err)
		}
		mf, err := b.ParseMessageFileBytes(data, e.Name())
		if err != nil {
			return fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
		if base, _ := mf.Tag.Base(); base == want && len(mf.Messages) > 0 {
			supported = true
		}
	}
	if !supported {
		return fmt.Errorf("i18n: no locale for language %q", lang)
	}

	mu.Lock()
	bundle = b
	defaultLang = lang
	mu.Unlock()
	return nil
}

// Localizer renders texts for one user.
type Localizer struct {
	loc *i18n.Localizer
}

// For returns a localizer preferring userLang and falling back to the configured language.
func For(userLang string) *Localizer {
	mu.RLock()
	b, def := bundle, defaultLang
	mu.RUnlock()
	if b == nil {
		panic("i18n: Init was not called")
	}
	return &Localizer{loc: i18n.NewLocalizer(b, strings.TrimSpace(userLang), def)}
}

// T renders a message by id.
func (l *Localizer) T(id string) string {
	return l.render(&i18n.LocalizeConfig{MessageID: id})
}

// Td renders a message with template data.
func (l *Localizer) Td(id string, data map[string]any) string {
	return l.render(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// Tp renders a pluralized message; Count is available to the template.
func (l *Localizer) Tp(id string, count int) string {
	return l.render(&i18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: map[string]any{"Count": count},
	})
}

func (l *Localizer) render(cfg *i18n.LocalizeConfig) string {
	s, err := l.loc.Localize(cfg)
	if err != nil {
		logger.Warn(logger.Background(), "i18n", "i18n.missing",
			slog.String("id", cfg.MessageID),
			slog.String("err", err.Error()),
		)
		return cfg.MessageID
	}
	return s
}
