package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
	StepSkipped                    // Not needed (e.g. no device to open)
)

// Step is one stage of a multi-command exchange such as a probe
type Step struct {
	Name    string
	Status  StepStatus
	Message string // e.g. "2 devices", "handle 3"
}

// Progress renders a bar and a step list for a fixed sequence of steps
type Progress struct {
	Label   string
	Steps   []Step
	Width   int
	ShowBar bool
	bar     progress.Model
}

// NewProgress creates a progress display with one pending step per name
func NewProgress(label string, names ...string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name}
	}
	p := &Progress{
		Label:   label,
		Steps:   steps,
		ShowBar: true,
	}
	return p.SetWidth(GetTerminalWidth())
}

// SetWidth sets the terminal width and resizes the bar to match
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := min(max(width-20, 20), 50)
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Update sets the status and message of the step at index i (0-based)
func (p *Progress) Update(i int, status StepStatus, message string) {
	if i < 0 || i >= len(p.Steps) {
		return
	}
	p.Steps[i].Status = status
	p.Steps[i].Message = message
}

// Start marks step i as running
func (p *Progress) Start(i int) { p.Update(i, StepRunning, "") }

// Complete marks step i as done
func (p *Progress) Complete(i int, message string) { p.Update(i, StepComplete, message) }

// Fail marks step i as failed
func (p *Progress) Fail(i int, message string) { p.Update(i, StepFailed, message) }

// SkipRemaining marks every step that has not run as skipped
func (p *Progress) SkipRemaining(message string) {
	for i := range p.Steps {
		if p.Steps[i].Status == StepPending {
			p.Update(i, StepSkipped, message)
		}
	}
}

// Percent is the fraction of steps that are complete or skipped
func (p *Progress) Percent() float64 {
	if len(p.Steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	return float64(done) / float64(len(p.Steps))
}

// Failed reports whether any step failed
func (p *Progress) Failed() bool {
	for _, s := range p.Steps {
		if s.Status == StepFailed {
			return true
		}
	}
	return false
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	if p.ShowBar {
		percent := p.Percent()
		b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(
			fmt.Sprintf("%s  %3.0f%%", p.bar.ViewAs(percent), percent*100)))
		b.WriteString("\n\n")
	}

	lines := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		lines[i] = p.renderStep(i, step)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

func (p *Progress) renderStep(i int, step Step) string {
	var marker string
	var style lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = StepMarkerSkipped, StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", i+1, len(p.Steps))
	b.WriteString(style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", max(32-lipgloss.Width(step.Name), 1)))
	b.WriteString(style.Render(marker))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
