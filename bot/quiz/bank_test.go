package quiz

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeBank(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	return path
}

func TestLoadBankJSON(t *testing.T) {
	path := writeBank(t, "question.json", `{
		"Questions": {
			"2": {"Path": "img/2.png", "Title": "Second", "Answer": "3"},
			"1": {"Path": "img/1.png", "Title": "First", "Answer": "1"}
		}
	}`)

	b, err := LoadBank(path)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	q, err := b.Get(1)
	if err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if q.Title != "First" || q.Answer != "1" {
		t.Fatalf("unexpected question: %+v", q)
	}
	want := filepath.Join(filepath.Dir(path), "img/1.png")
	if q.Path != want {
		t.Fatalf("Path = %q, want %q", q.Path, want)
	}
}

func TestLoadBankYAML(t *testing.T) {
	path := writeBank(t, "bank.yaml", `
questions:
  "1":
    path: /abs/1.png
    title: Only
    answer: "4"
`)
	b, err := LoadBank(path)
	if err != nil {
		t.Fatalf("LoadBank: %v", err)
	}
	q, _ := b.Get(1)
	if q.Path != "/abs/1.png" {
		t.Fatalf("absolute path rewritten: %q", q.Path)
	}
}

func TestLoadBankErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":      `{"Questions": `,
		"empty":          `{"Questions": {}}`,
		"missing title":  `{"Questions": {"1": {"Path": "a.png", "Answer": "1"}}}`,
		"missing path":   `{"Questions": {"1": {"Title": "t", "Answer": "1"}}}`,
		"missing answer": `{"Questions": {"1": {"Path": "a.png", "Title": "t"}}}`,
		"gap":            `{"Questions": {"1": {"Path": "a", "Title": "t", "Answer": "1"}, "3": {"Path": "b", "Title": "t", "Answer": "1"}}}`,
		"bad index":      `{"Questions": {"x": {"Path": "a", "Title": "t", "Answer": "1"}}}`,
		"zero index":     `{"Questions": {"0": {"Path": "a", "Title": "t", "Answer": "1"}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBank(writeBank(t, "q.json", body))
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
		})
	}

	_, err := LoadBank(filepath.Join(t.TempDir(), "missing.json"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("missing file: expected *LoadError, got %v", err)
	}
}

func TestBankGetOutOfRange(t *testing.T) {
	b := testBank(t, 2)
	for _, idx := range []int{0, 3, -1} {
		_, err := b.Get(idx)
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("Get(%d): expected *NotFoundError, got %v", idx, err)
		}
		if nf.Size != 2 {
			t.Fatalf("NotFoundError.Size = %d, want 2", nf.Size)
		}
	}
}
