package i18n

import (
	"strings"
	"testing"
)

func initLang(t *testing.T, lang string) {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
}

func TestRussianDefault(t *testing.T) {
	initLang(t, "ru")

	if got := For("").T("AnswerRight"); got != "Верно" {
		t.Errorf("T(AnswerRight) = %q, want Верно", got)
	}
	// Unknown user language falls back to the default.
	if got := For("de").T("TestFinished"); got != "Тест завершен." {
		t.Errorf("fallback T(TestFinished) = %q", got)
	}
}

func TestUserLanguagePreferred(t *testing.T) {
	initLang(t, "ru")

	if got := For("en").T("AnswerRight"); got != "Correct" {
		t.Errorf("T(AnswerRight) for en = %q, want Correct", got)
	}
}

func TestTemplateData(t *testing.T) {
	initLang(t, "ru")

	got := For("ru").Td("Summary", map[string]any{"Correct": 9, "Total": 10, "Grade": 5})
	want := "Вы правильно ответили на 9 вопросов из 10, ваша оценка: 5"
	if got != want {
		t.Errorf("Td(Summary) = %q, want %q", got, want)
	}
}

func TestPlural(t *testing.T) {
	initLang(t, "ru")

	loc := For("ru")
	if got := loc.Tp("TestIntro", 15); !strings.Contains(got, "15 вопросов") {
		t.Errorf("Tp(TestIntro, 15) = %q", got)
	}
	if got := loc.Tp("TestIntro", 3); !strings.Contains(got, "3 вопроса") {
		t.Errorf("Tp(TestIntro, 3) = %q", got)
	}
	if got := loc.Tp("TestIntro", 21); !strings.Contains(got, "21 вопрос,") {
		t.Errorf("Tp(TestIntro, 21) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	initLang(t, "en")

	if got := For("en").T("NoSuchKey"); got != "NoSuchKey" {
		t.Errorf("T(NoSuchKey) = %q, want the id back", got)
	}
}

func TestInitRejectsUnknownLanguage(t *testing.T) {
	initLang(t, "ru")
	if err := Init("fr"); err == nil {
		t.Fatal("expected error for language without a locale file")
	}
	if got := For("de").T("Welcome"); got == "Welcome" {
		t.Fatal("rejected Init replaced the working bundle")
	}
	if err := Init("not a tag!"); err == nil {
		t.Fatal("expected parse error")
	}
	initLang(t, "ru")
}
