package tui

import (
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/model"
)

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// quickAdd is a task typed on one line, e.g. "Pay rent due:+3d !h"
type quickAdd struct {
	Title    string
	Due      time.Time
	Priority model.Priority
}

// parseQuickAdd pulls "due:" and "!h/!m/!l" tokens out of the input.
// Without a due token the task is due at the end of tomorrow.
func parseQuickAdd(input string, now time.Time, loc *time.Location) (quickAdd, error) {
	q := quickAdd{Priority: model.PriorityMedium}
	dueText := "tomorrow"

	var words []string
	for _, w := range strings.Fields(input) {
		switch {
		case strings.HasPrefix(w, "due:") && len(w) > len("due:"):
			dueText = strings.TrimPrefix(w, "due:")
		case w == "!h":
			q.Priority = model.PriorityHigh
		case w == "!m":
			q.Priority = model.PriorityMedium
		case w == "!l":
			q.Priority = model.PriorityLow
		default:
			words = append(words, w)
		}
	}
	q.Title = strings.Join(words, " ")

	due, err := model.ParseDueDate(dueText, now, loc)
	if err != nil {
		return q, err
	}
	q.Due = due
	return q, nil
}

// sparkline renders one block per value scaled to the largest
func sparkline(values []int) string {
	blocks := []rune("▁▂▃▄▅▆▇█")
	top := 0
	for _, v := range values {
		top = max(top, v)
	}
	var b strings.Builder
	for _, v := range values {
		if top == 0 {
			b.WriteRune(blocks[0])
			continue
		}
		b.WriteRune(blocks[v*(len(blocks)-1)/top])
	}
	return b.String()
}
