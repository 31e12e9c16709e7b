package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/existflow/taskdeck/internal/app"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/store"
)

// resolveTask finds a task by full ID or by a unique ID prefix
func resolveTask(a *app.App, ref string) (model.Task, error) {
	if t, ok := a.Tasks.Get(ref); ok {
		return t, nil
	}

	var matches []model.Task
	for _, t := range a.Tasks.Snapshot() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, store.NotFoundError{Kind: "task", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// resolveCategory finds a category by ID, by name (any casing) or by a unique
// ID prefix
func resolveCategory(a *app.App, ref string) (model.Category, error) {
	if c, ok := a.Categories.Get(ref); ok {
		return c, nil
	}
	if c, ok := a.Categories.FindByName(ref); ok {
		return c, nil
	}

	var matches []model.Category
	for _, c := range a.Categories.Snapshot() {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return model.Category{}, store.NotFoundError{Kind: "category", ID: ref}
	case 1:
		return matches[0], nil
	default:
		return model.Category{}, fmt.Errorf("category %q is ambiguous (%d matches)", ref, len(matches))
	}
}

// categoryNames maps category IDs to names for display
func categoryNames(a *app.App) map[string]string {
	names := make(map[string]string)
	for _, c := range a.Categories.Snapshot() {
		names[c.ID] = c.Name
	}
	return names
}

// confirm asks a yes/no question; anything but y/yes is a no
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
