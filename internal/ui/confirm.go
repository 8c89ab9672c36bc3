package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box and asks a yes/no question on out, reading the
// answer from in. Anything but "y" or "yes" counts as no.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string, question string) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		StepRunningStyle.Bold(true).Render("   " + WarningMarker + "  " + title),
		"",
	}
	for _, warning := range warnings {
		lines = append(lines, ResultValueStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	fmt.Fprintln(out, WarningBoxStyle(width).Render(strings.Join(lines, "\n")))

	promptStyle := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	fmt.Fprint(out, promptStyle.Render(question+" [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}
	fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Cancelled."))
	return false
}
