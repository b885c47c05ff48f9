package quiz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Question is a single quiz item. Path points to the image shown to the user.
type Question struct {
	Index  int
	Path   string
	Title  string
	Answer string
}

// Bank is an immutable, index-addressed set of questions.
type Bank struct {
	questions []Question
}

type bankItem struct {
	Path   string `json:"Path" yaml:"path"`
	Title  string `json:"Title" yaml:"title"`
	Answer string `json:"Answer" yaml:"answer"`
}

type bankFile struct {
	Questions map[string]bankItem `json:"Questions" yaml:"questions"`
}

// LoadError reports a question bank that cannot be used.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("question bank %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("question bank %s: %s", e.Source, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Code returns a stable identifier for logs.
func (e *LoadError) Code() string { return "bank_load" }

// NotFoundError is returned when a question index is outside the bank.
type NotFoundError struct {
	Index int
	Size  int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("question %d not found (bank size %d)", e.Index, e.Size)
}

// Code returns a stable identifier for logs.
func (e *NotFoundError) Code() string { return "question_not_found" }

// LoadBank reads a question bank from a JSON or YAML file.
// Relative question paths are resolved against the directory of the bank file.
func LoadBank(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Reason: "read", Err: err}
	}

	var raw bankFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, &LoadError{Source: path, Reason: "decode", Err: err}
	}

	b, err := newBank(raw.Questions, filepath.Dir(path))
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Source = path
		}
		return nil, err
	}
	return b, nil
}

// newBank validates raw items keyed by their 1-based index.
func newBank(items map[string]bankItem, baseDir string) (*Bank, error) {
	if len(items) == 0 {
		return nil, &LoadError{Reason: "no questions"}
	}

	questions := make([]Question, 0, len(items))
	for key, it := range items {
		idx, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || idx < 1 {
			return nil, &LoadError{Reason: fmt.Sprintf("invalid question index %q", key)}
		}
		q := Question{
			Index:  idx,
			Path:   strings.TrimSpace(it.Path),
			Title:  strings.TrimSpace(it.Title),
			Answer: strings.TrimSpace(it.Answer),
		}
		switch {
		case q.Path == "":
			return nil, &LoadError{Reason: fmt.Sprintf("question %d: path is required", idx)}
		case q.Title == "":
			return nil, &LoadError{Reason: fmt.Sprintf("question %d: title is required", idx)}
		case q.Answer == "":
			return nil, &LoadError{Reason: fmt.Sprintf("question %d: answer is required", idx)}
		}
		if baseDir != "" && !filepath.IsAbs(q.Path) {
			q.Path = filepath.Join(baseDir, q.Path)
		}
		questions = append(questions, q)
	}

	sort.Slice(questions, func(i, j int) bool { return questions[i].Index < questions[j].Index })
	for i, q := range questions {
		if q.Index != i+1 {
			return nil, &LoadError{Reason: fmt.Sprintf("question indices must be contiguous from 1, gap at %d", i+1)}
		}
	}
	return &Bank{questions: questions}, nil
}

// Get returns the question with the given 1-based index.
func (b *Bank) Get(index int) (Question, error) {
	if b == nil || index < 1 || index > len(b.questions) {
		return Question{}, &NotFoundError{Index: index, Size: b.Len()}
	}
	return b.questions[index-1], nil
}

// Len reports the number of questions.
func (b *Bank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.questions)
}

// Questions returns a copy of all questions in index order.
func (b *Bank) Questions() []Question {
	if b == nil {
		return nil
	}
	return append([]Question(nil), b.questions...)
}
