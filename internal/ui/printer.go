package ui

import (
	"fmt"
	"io"
	"os"
)

// Printer writes UI components to a writer. In plain mode boxes and colors
// are replaced by simple lines, for pipes and log files.
type Printer struct {
	out   io.Writer
	width int
	plain bool
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used and plain mode follows whether stdout
// is a terminal.
func NewPrinter(w io.Writer) *Printer {
	plain := false
	if w == nil {
		w = os.Stdout
		plain = !IsTerminal()
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
		plain: plain,
	}
}

// SetPlain switches plain mode on or off
func (p *Printer) SetPlain(plain bool) *Printer {
	p.plain = plain
	return p
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = width
	return p
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	if p.plain {
		return
	}
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	if p.plain {
		p.printPlainResult(title, details)
		return
	}
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	if p.plain {
		p.printPlainResult("warning: "+title, details)
		return
	}
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints an error box. hint is multi-line troubleshooting text
// as produced by session.TroubleshootingHint.
func (p *Printer) PrintError(title string, err error, hint string) {
	summary, tips := SplitHint(hint)
	if len(tips) == 0 && summary != "" {
		tips = []string{summary}
	}

	if p.plain {
		if err != nil {
			p.Printf("error: %s: %v\n", title, err)
		} else {
			p.Printf("error: %s\n", title)
		}
		for _, tip := range tips {
			p.Printf("  - %s\n", tip)
		}
		return
	}
	p.Println(NewFailureResult(title, err, tips).SetWidth(p.width).Render())
}

// PrintTable prints rows as a table; in plain mode as tab-separated lines
func (p *Printer) PrintTable(headers []string, rows [][]string, muted func(row int) bool) {
	if p.plain {
		p.printTSV(headers, rows)
		return
	}
	p.Println(RenderTable(headers, rows, p.width, muted))
}

// PrintProgress prints the current state of a step list
func (p *Printer) PrintProgress(progress *Progress) {
	if p.plain {
		for i, s := range progress.Steps {
			p.Printf("[%d/%d] %s: %s", i+1, len(progress.Steps), s.Name, stepStatusWord(s.Status))
			if s.Message != "" {
				p.Printf(" (%s)", s.Message)
			}
			p.Newline()
		}
		return
	}
	p.Println(progress.SetWidth(p.width).Render())
}

func (p *Printer) printPlainResult(title string, details []Detail) {
	p.Println(title)
	for _, d := range details {
		p.Printf("  %s: %s\n", d.Key, d.Value)
	}
}

func (p *Printer) printTSV(headers []string, rows [][]string) {
	writeRow := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				p.Printf("\t")
			}
			p.Printf("%s", c)
		}
		p.Newline()
	}
	writeRow(headers)
	for _, r := range rows {
		writeRow(r)
	}
}

func stepStatusWord(s StepStatus) string {
	switch s {
	case StepRunning:
		return "running"
	case StepComplete:
		return "ok"
	case StepFailed:
		return "failed"
	case StepSkipped:
		return "skipped"
	default:
		return "pending"
	}
}
