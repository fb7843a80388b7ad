// Package posting loads job postings from the built-in examples, files,
// stdin or web pages.
package posting

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed examples/*.txt
var exampleFS embed.FS

// Built-in example names, in the order they are run.
var exampleNames = []string{"nurse", "carpenter", "ferry-cook"}

// maxBodyBytes caps how much of a fetched page is read.
const maxBodyBytes = 4 << 20

// ErrEmpty is returned when a source yields no text.
var ErrEmpty = errors.New("posting: empty text")

// Posting is one job description to locate.
type Posting struct {
	Name   string `yaml:"name" json:"name"`
	Text   string `yaml:"text" json:"-"`
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
}

// Examples returns the three built-in postings: a research nurse at
// Rigshospitalet, a carpenter on Funen and a cook on the
// Helsingør-Helsingborg ferry.
func Examples() []Posting {
	out := make([]Posting, 0, len(exampleNames))
	for _, name := range exampleNames {
		b, err := exampleFS.ReadFile("examples/" + name + ".txt")
		if err != nil {
			panic(fmt.Sprintf("posting: missing embedded example %s: %v", name, err))
		}
		out = append(out, Posting{Name: name, Text: string(b), Source: "builtin:" + name})
	}
	return out
}

// Example returns the built-in posting with the given name.
func Example(name string) (Posting, bool) {
	for _, p := range Examples() {
		if p.Name == name {
			return p, true
		}
	}
	return Posting{}, false
}

// Loader reads postings from files, stdin or http(s) URLs.
type Loader struct {
	HTTPClient *http.Client
	Stdin      io.Reader
}

// NewLoader returns a Loader reading stdin from os.Stdin.
func NewLoader() *Loader {
	return &Loader{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Stdin:      os.Stdin,
	}
}

// Load resolves src: "-" reads stdin, an http(s) URL is fetched and its
// HTML reduced to text, anything else is a file path.
func (l *Loader) Load(ctx context.Context, src string) (Posting, error) {
	src = strings.TrimSpace(src)
	var (
		p   Posting
		err error
	)
	switch {
	case src == "-":
		p, err = l.fromReader("stdin", l.Stdin)
	case IsURL(src):
		p, err = l.fromURL(ctx, src)
	default:
		p, err = fromFile(src)
	}
	if err != nil {
		return Posting{}, err
	}
	if strings.TrimSpace(p.Text) == "" {
		return Posting{}, fmt.Errorf("%w: %s", ErrEmpty, src)
	}
	return p, nil
}

// IsURL reports whether s is an http or https URL.
func IsURL(s string) bool {
	low := strings.ToLower(s)
	return strings.HasPrefix(low, "http://") || strings.HasPrefix(low, "https://")
}

func (l *Loader) fromReader(name string, r io.Reader) (Posting, error) {
	if r == nil {
		return Posting{}, fmt.Errorf("posting: no %s reader", name)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return Posting{}, fmt.Errorf("posting: read %s: %w", name, err)
	}
	return Posting{Name: name, Text: string(b), Source: name}, nil
}

func fromFile(path string) (Posting, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Posting{}, fmt.Errorf("posting: read file: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Posting{Name: name, Text: string(b), Source: path}, nil
}

func (l *Loader) fromURL(ctx context.Context, url string) (Posting, error) {
	hc := l.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Posting{}, err
	}
	req.Header.Set("User-Agent", "jobplace/1.0")

	res, err := hc.Do(req)
	if err != nil {
		return Posting{}, fmt.Errorf("posting: fetch %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return Posting{}, fmt.Errorf("posting: fetch %s: status %d", url, res.StatusCode)
	}

	text, err := HTMLText(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return Posting{}, fmt.Errorf("posting: parse %s: %w", url, err)
	}
	return Posting{Name: url, Text: text, Source: url}, nil
}
