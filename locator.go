package jobplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// AgentName names the locator agent in traces and history.
const AgentName = "JobLocation"

// ErrEmptyPosting is returned when Locate is called without posting text.
var ErrEmptyPosting = errors.New("job posting is empty")

// Location is the outcome of locating one posting.
type Location struct {
	// PlaceID is the Google place ID parsed from the answer
	PlaceID string `json:"place_id"`

	// Answer is the model's raw final text
	Answer string `json:"answer"`

	Turns int   `json:"turns"`
	Usage Usage `json:"usage"`
}

// Locator asks an agent equipped with the places tool where a job is performed.
type Locator struct {
	runner *Runner
	agent  *Agent
	opts   RunOptions
	logger *Logger
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithMaxTurns caps the number of chat completions per posting.
func WithMaxTurns(n int) LocatorOption {
	return func(l *Locator) { l.opts.MaxTurns = n }
}

// WithTrace prints every agent step.
func WithTrace(t *Trace) LocatorOption {
	return func(l *Locator) { l.opts.Trace = t }
}

// WithStreaming streams completions, passing content deltas to onToken.
func WithStreaming(onToken func(string)) LocatorOption {
	return func(l *Locator) {
		l.opts.Stream = true
		l.opts.OnToken = onToken
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) LocatorOption {
	return func(l *Locator) { l.agent.WithTemperature(t) }
}

// WithLocatorLogger sets the logger.
func WithLocatorLogger(logger *Logger) LocatorOption {
	return func(l *Locator) { l.logger = logger }
}

// NewLocator builds the single agent: the task prompt, the places tool and
// the model, with temperature 0 unless overridden.
func NewLocator(runner *Runner, tool AgentFunction, model string, opts ...LocatorOption) *Locator {
	if model == "" {
		model = DefaultModel
	}
	agent := NewAgent(AgentName).
		WithModel(model).
		AddFunction(tool).
		WithTemperature(0)
	agent.WithInstructions(BuildInstructions(agent.Functions))

	l := &Locator{
		runner: runner,
		agent:  agent,
		logger: NewNopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Model returns the chat model the locator uses.
func (l *Locator) Model() string {
	return l.agent.Model
}

// Locate runs the agent on one posting and extracts the place ID from the
// first line of its answer. When the run finishes but extraction fails, the
// returned Location still carries the raw answer alongside the error.
func (l *Locator) Locate(ctx context.Context, posting string) (*Location, error) {
	if strings.TrimSpace(posting) == "" {
		return nil, ErrEmptyPosting
	}

	resp, err := l.runner.Run(ctx, l.agent, []Message{UserMessage(posting)}, l.opts)
	if err != nil {
		return nil, fmt.Errorf("agent run: %w", err)
	}

	loc := &Location{
		Answer: resp.FinalContent(),
		Turns:  resp.Turns,
		Usage:  resp.Usage,
	}
	id, err := ExtractPlaceID(loc.Answer)
	if err != nil {
		l.logger.Warn("could not extract place id", "answer", loc.Answer, "err", err)
		return loc, fmt.Errorf("extract place id: %w", err)
	}
	loc.PlaceID = id

	l.logger.Info("located job", "place_id", id, "turns", resp.Turns, "total_tokens", resp.Usage.TotalTokens)
	return loc, nil
}
