package jobplace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feiskyer/jobplace/posting"
)

// ErrBatchFailures is returned by RunPostings when at least one posting
// failed and the batch was allowed to continue.
var ErrBatchFailures = errors.New("batch finished with failures")

// Batch is a YAML-described list of postings located one after another.
type Batch struct {
	// Name is the name of the batch.
	Name string `yaml:"name" json:"name"`
	// Model overrides the configured chat model.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
	// MaxTurns overrides the configured turn limit per posting.
	MaxTurns int `yaml:"max_turns,omitempty" json:"max_turns,omitempty"`
	// Timeout bounds each posting.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	// FailFast stops the batch at the first failed posting.
	FailFast bool `yaml:"fail_fast,omitempty" json:"fail_fast,omitempty"`
	// Postings are located in order.
	Postings []BatchPosting `yaml:"postings" json:"postings"`

	dir string
}

// BatchPosting names one posting and exactly one of its sources.
type BatchPosting struct {
	Name string `yaml:"name" json:"name"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
	// File is resolved relative to the batch file.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
}

// ExampleBatch returns a batch holding the built-in example postings.
func ExampleBatch() *Batch {
	b := &Batch{Name: "examples", Timeout: DefaultPostingTimeout}
	for _, p := range posting.Examples() {
		b.Postings = append(b.Postings, BatchPosting{Name: p.Name, Text: p.Text})
	}
	return b
}

// Initialize fills in defaults and validates the batch.
func (b *Batch) Initialize() error {
	if b.Timeout == 0 {
		b.Timeout = DefaultPostingTimeout
	}
	if b.Timeout < 0 {
		return fmt.Errorf("batch timeout must be positive, got %s", b.Timeout)
	}
	if b.MaxTurns < 0 {
		return fmt.Errorf("batch max_turns must not be negative, got %d", b.MaxTurns)
	}
	if len(b.Postings) == 0 {
		return fmt.Errorf("batch must have at least one posting")
	}

	for i := range b.Postings {
		p := &b.Postings[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("posting-%d", i+1)
		}
		sources := 0
		for _, s := range []string{p.Text, p.File, p.URL} {
			if strings.TrimSpace(s) != "" {
				sources++
			}
		}
		if sources != 1 {
			return fmt.Errorf("posting %s: exactly one of text, file or url is required", p.Name)
		}
	}
	return nil
}

// LoadBatch reads and initializes a batch from a YAML file.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch: %w", err)
	}
	b.dir = filepath.Dir(path)

	if err := b.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize batch: %w", err)
	}
	return &b, nil
}

// Save writes the batch as YAML.
func (b *Batch) Save(path string) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write batch file: %w", err)
	}
	return nil
}

// Resolve loads the text of every posting.
func (b *Batch) Resolve(ctx context.Context, loader *posting.Loader) ([]posting.Posting, error) {
	out := make([]posting.Posting, 0, len(b.Postings))
	for _, bp := range b.Postings {
		var (
			p   posting.Posting
			err error
		)
		switch {
		case bp.Text != "":
			p = posting.Posting{Text: bp.Text, Source: "inline"}
		case bp.File != "":
			path := bp.File
			if !filepath.IsAbs(path) && b.dir != "" {
				path = filepath.Join(b.dir, path)
			}
			p, err = loader.Load(ctx, path)
		default:
			p, err = loader.Load(ctx, bp.URL)
		}
		if err != nil {
			return nil, fmt.Errorf("posting %s: %w", bp.Name, err)
		}
		p.Name = bp.Name
		out = append(out, p)
	}
	return out, nil
}

// PostingLocator is satisfied by *Locator.
type PostingLocator interface {
	Locate(ctx context.Context, posting string) (*Location, error)
}

// BatchOptions controls RunPostings.
type BatchOptions struct {
	// Timeout bounds each posting; DefaultPostingTimeout when zero
	Timeout time.Duration

	FailFast bool

	// OnResult is called after each posting, in order
	OnResult func(BatchResult)
}

// BatchResult is the outcome for one posting.
type BatchResult struct {
	Posting  posting.Posting
	Location *Location
	Err      error
	Elapsed  time.Duration
}

// RunPostings locates postings strictly one after another. By default every
// posting is attempted and ErrBatchFailures is returned at the end if any
// failed; with FailFast the first failure ends the batch.
func RunPostings(ctx context.Context, loc PostingLocator, postings []posting.Posting, opts BatchOptions) ([]BatchResult, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultPostingTimeout
	}

	results := make([]BatchResult, 0, len(postings))
	failed := 0
	for i, p := range postings {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("batch cancelled: %w", err)
		}

		res := locateOne(ctx, loc, p, timeout)
		results = append(results, res)
		if opts.OnResult != nil {
			opts.OnResult(res)
		}

		if res.Err != nil {
			failed++
			if opts.FailFast {
				return results, fmt.Errorf("batch failed at posting %d (%s): %w", i+1, p.Name, res.Err)
			}
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d postings", ErrBatchFailures, failed, len(postings))
	}
	return results, nil
}

func locateOne(ctx context.Context, loc PostingLocator, p posting.Posting, timeout time.Duration) BatchResult {
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	location, err := loc.Locate(pctx, p.Text)
	return BatchResult{
		Posting:  p,
		Location: location,
		Err:      err,
		Elapsed:  time.Since(start),
	}
}
