// Package assets resolves commands and quiz questions to deliverable resources.
package assets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/m3rciful/quizbot/bot/quiz"
)

// Kind describes how a resource is delivered.
type Kind string

const (
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
	KindLink     Kind = "link"
	KindText     Kind = "text"
)

func (k Kind) fileBacked() bool {
	return k == KindPhoto || k == KindDocument || k == KindVideo
}

// Resource is a resolved asset ready to be opened and sent.
type Resource struct {
	Kind    Kind
	Path    string
	URL     string
	Text    string
	Caption string
}

// Entry is a static command binding as it appears in configuration.
type Entry struct {
	Command     string `yaml:"command"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	Path        string `yaml:"path"`
	URL         string `yaml:"url"`
	Text        string `yaml:"text"`
	Title       string `yaml:"title"`
}

// Payload is the content of a resource after its file was read.
type Payload struct {
	Resource Resource
	Name     string
	Data     []byte
}

// AssetUnavailableError reports a resource whose file cannot be read.
type AssetUnavailableError struct {
	Path string
	Err  error
}

func (e *AssetUnavailableError) Error() string {
	return fmt.Sprintf("asset %s unavailable: %v", e.Path, e.Err)
}

func (e *AssetUnavailableError) Unwrap() error { return e.Err }

// Code returns a stable identifier for logs.
func (e *AssetUnavailableError) Code() string { return "asset_unavailable" }

// Catalog is a fixed table of static commands.
type Catalog struct {
	entries map[string]Resource
	order   []Entry
}

// NewCatalog validates entries and indexes them by lower-cased command.
// Relative file paths are resolved against baseDir.
func NewCatalog(entries []Entry, baseDir string) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Resource, len(entries))}
	for i, e := range entries {
		cmd := NormalizeCommand(e.Command)
		if cmd == "/" {
			return nil, fmt.Errorf("resources[%d]: command is required", i)
		}
		if _, dup := c.entries[cmd]; dup {
			return nil, fmt.Errorf("resources[%d]: duplicate command %s", i, cmd)
		}

		res := Resource{
			Kind:    Kind(strings.ToLower(strings.TrimSpace(e.Kind))),
			Path:    strings.TrimSpace(e.Path),
			URL:     strings.TrimSpace(e.URL),
			Text:    e.Text,
			Caption: strings.TrimSpace(e.Title),
		}
		switch res.Kind {
		case KindPhoto, KindDocument, KindVideo:
			if res.Path == "" {
				return nil, fmt.Errorf("resources[%d] %s: path is required for kind %s", i, cmd, res.Kind)
			}
			if baseDir != "" && !filepath.IsAbs(res.Path) {
				res.Path = filepath.Join(baseDir, res.Path)
			}
		case KindLink:
			if res.URL == "" {
				return nil, fmt.Errorf("resources[%d] %s: url is required for kind link", i, cmd)
			}
		case KindText:
			if strings.TrimSpace(res.Text) == "" {
				return nil, fmt.Errorf("resources[%d] %s: text is required for kind text", i, cmd)
			}
		default:
			return nil, fmt.Errorf("resources[%d] %s: invalid kind %q; allowed: photo, document, video, link, text", i, cmd, e.Kind)
		}

		c.entries[cmd] = res
		e.Command = cmd
		c.order = append(c.order, e)
	}
	return c, nil
}

// Resolve returns the resource bound to a command.
func (c *Catalog) Resolve(command string) (Resource, bool) {
	if c == nil {
		return Resource{}, false
	}
	res, ok := c.entries[NormalizeCommand(command)]
	return res, ok
}

// Entries returns the configured bindings in declaration order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.order...)
}

// ForQuestion maps a quiz question to its photo resource.
func ForQuestion(q quiz.Question) Resource {
	return Resource{Kind: KindPhoto, Path: q.Path, Caption: q.Title}
}

// Open reads the file behind a resource. The handle is closed before Open returns,
// on success and on failure alike.
func Open(res Resource) (Payload, error) {
	p := Payload{Resource: res}
	if !res.Kind.fileBacked() {
		return p, nil
	}
	data, err := readFile(res.Path)
	if err != nil {
		return Payload{}, &AssetUnavailableError{Path: res.Path, Err: err}
	}
	p.Name = filepath.Base(res.Path)
	p.Data = data
	return p, nil
}

// Check verifies that a file-backed resource can be read without loading it.
func Check(res Resource) error {
	if !res.Kind.fileBacked() {
		return nil
	}
	f, err := os.Open(res.Path)
	if err != nil {
		return &AssetUnavailableError{Path: res.Path, Err: err}
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return &AssetUnavailableError{Path: res.Path, Err: err}
	}
	if st.IsDir() {
		return &AssetUnavailableError{Path: res.Path, Err: fmt.Errorf("is a directory")}
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// NormalizeCommand lower-cases a command and ensures the leading slash.
func NormalizeCommand(cmd string) string {
	cmd = strings.ToLower(strings.TrimSpace(cmd))
	if !strings.HasPrefix(cmd, "/") {
		cmd = "/" + cmd
	}
	return cmd
}
