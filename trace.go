package jobplace

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	traceChainStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	traceInvokeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	traceOutputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	traceAnswerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// Trace prints a human readable account of an agent run, one block per step.
// A nil *Trace prints nothing.
type Trace struct {
	w io.Writer
}

// NewTrace returns a Trace writing to w.
func NewTrace(w io.Writer) *Trace {
	return &Trace{w: w}
}

func (t *Trace) printf(style lipgloss.Style, format string, args ...any) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintln(t.w, style.Render(fmt.Sprintf(format, args...)))
}

// Begin marks the start of a run for the named agent.
func (t *Trace) Begin(agent string) {
	t.printf(traceChainStyle, "\n> Entering new %s chain...", agent)
}

// ToolCall records the model asking for a tool.
func (t *Trace) ToolCall(name, args string) {
	t.printf(traceInvokeStyle, "\nInvoking: `%s` with `%s`\n", name, args)
}

// ToolResult records what a tool returned.
func (t *Trace) ToolResult(content string) {
	t.printf(traceOutputStyle, "%s", strings.TrimRight(content, "\n"))
}

// Answer records the model's final text.
func (t *Trace) Answer(content string) {
	t.printf(traceAnswerStyle, "%s", content)
}

// End marks the end of a run.
func (t *Trace) End() {
	t.printf(traceChainStyle, "\n> Finished chain.")
}
