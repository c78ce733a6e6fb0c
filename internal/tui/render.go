package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/stemsi/exstem-quiz/internal/model"
)

var (
	headingColor  = lipgloss.Color("33")
	selectedColor = lipgloss.Color("42")
	cursorColor   = lipgloss.Color("212")
	mutedColor    = lipgloss.Color("242")
	noticeColor   = lipgloss.Color("214")
	wrongColor    = lipgloss.Color("196")
)

func renderHeading(text string, noColor bool) string {
	if noColor {
		return text + "\n"
	}
	return lipgloss.NewStyle().Bold(true).Foreground(headingColor).Render(text) + "\n"
}

func renderReady(v model.SessionView, noColor bool) string {
	lines := []string{
		fmt.Sprintf("%d questions.", v.Total),
	}
	if v.Remaining != nil {
		lines = append(lines, "You have "+formatClock(*v.Remaining)+" to answer them all.")
	}
	lines = append(lines, "", stylize("Press enter to begin.", noColor, mutedColor))
	return strings.Join(lines, "\n")
}

func renderQuestion(v model.SessionView, cursor int, bar progress.Model, noColor bool) string {
	q := v.Question
	if q == nil {
		return ""
	}

	status := fmt.Sprintf("Question %d of %d", v.Index+1, v.Total)
	if v.Remaining != nil {
		status += "   " + formatClock(*v.Remaining)
	}

	lines := []string{
		stylize(status, noColor, mutedColor),
		bar.ViewAs(v.Progress / 100),
		"",
		q.Prompt,
		"",
	}

	for i, option := range q.Options {
		selected := q.Selected != nil && *q.Selected == i
		lines = append(lines, renderOption(i, option, i == cursor, selected, noColor))
	}
	return strings.Join(lines, "\n")
}

func renderOption(i int, text string, atCursor, selected, noColor bool) string {
	pointer := "  "
	if atCursor {
		pointer = "> "
	}
	mark := "( )"
	if selected {
		mark = "(*)"
	}
	line := fmt.Sprintf("%s%s %d. %s", pointer, mark, i+1, text)

	switch {
	case selected:
		return stylize(line, noColor, selectedColor)
	case atCursor:
		return stylize(line, noColor, cursorColor)
	}
	return line
}

func renderResult(r *model.Result, noColor bool) string {
	if r == nil {
		return ""
	}
	lines := []string{
		fmt.Sprintf("You scored %d out of %d (%.2f%%).", r.Score, r.Total, r.Percent),
		"Time taken: " + formatClock(r.TimeTaken),
		"",
	}
	for i, item := range r.Review {
		lines = append(lines, renderReviewItem(i, item, noColor))
	}
	return strings.Join(lines, "\n")
}

func renderReviewItem(i int, item model.ReviewItem, noColor bool) string {
	mark := "x"
	color := wrongColor
	if item.Selected != nil && *item.Selected == item.Correct {
		mark = "v"
		color = selectedColor
	}
	return stylize(fmt.Sprintf("%s %d. %s", mark, i+1, item.Prompt), noColor, color)
}

func renderNotice(text string, noColor bool) string {
	return "\n" + stylize(text, noColor, noticeColor)
}

func renderHelp(status model.SessionStatus, noColor bool) string {
	var help string
	switch status {
	case model.SessionStatusReady:
		help = "enter begin • q quit"
	case model.SessionStatusInProgress:
		help = "1-9/space select • ↑/↓ move • enter next • ← previous • s submit • q quit"
	case model.SessionStatusCompleted:
		help = "r retake • q quit"
	}
	return "\n" + stylize(help, noColor, mutedColor)
}

// formatClock renders a clock as m:ss.
func formatClock(c model.Clock) string {
	return fmt.Sprintf("%d:%02d", c.Minutes, c.Seconds)
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
