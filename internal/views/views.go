// Package views computes projections over the task and category collections.
// Every function is pure; the stream helpers recompute on each emission of
// their inputs and never cache.
package views

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/stream"
)

// Stats is the dashboard summary of a task list
type Stats struct {
	CompletedPct int `json:"completedPct"`
	PendingPct   int `json:"pendingPct"`
	OverdueCount int `json:"overdueCount"`
}

// Statistics computes completion percentages, rounded half away from zero,
// and counts overdue tasks relative to now. An empty list yields zeros.
func Statistics(tasks []model.Task, now time.Time) Stats {
	total := len(tasks)
	completed, overdue := 0, 0
	for i := range tasks {
		if tasks[i].IsCompleted() {
			completed++
		}
		if tasks[i].IsOverdue(now) {
			overdue++
		}
	}

	var st Stats
	if total > 0 {
		st.CompletedPct = percent(completed, total)
		st.PendingPct = percent(total-completed, total)
	}
	st.OverdueCount = overdue
	return st
}

func percent(part, total int) int {
	return int(math.Round(100 * float64(part) / float64(total)))
}

// StatusCounts is the number of tasks in each status
type StatusCounts struct {
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	NotStarted int `json:"notStarted"`
}

// StatusBreakdown counts tasks per status. Unknown statuses are not counted.
func StatusBreakdown(tasks []model.Task) StatusCounts {
	var c StatusCounts
	for _, t := range tasks {
		switch t.Status {
		case model.StatusCompleted:
			c.Completed++
		case model.StatusInProgress:
			c.InProgress++
		case model.StatusNotStarted:
			c.NotStarted++
		}
	}
	return c
}

// CategoryStat is a category with its task counts
type CategoryStat struct {
	model.Category
	TaskCount      int `json:"taskCount"`
	CompletedCount int `json:"completedCount"`
}

// CategoryBreakdown counts tasks per category, in category order. Tasks
// pointing at unknown categories are ignored.
func CategoryBreakdown(categories []model.Category, tasks []model.Task) []CategoryStat {
	index := make(map[string]int, len(categories))
	out := make([]CategoryStat, len(categories))
	for i, c := range categories {
		out[i] = CategoryStat{Category: c}
		index[c.ID] = i
	}
	for _, t := range tasks {
		i, ok := index[t.CategoryID]
		if !ok {
			continue
		}
		out[i].TaskCount++
		if t.IsCompleted() {
			out[i].CompletedCount++
		}
	}
	return out
}

// Uncategorized returns the tasks whose category does not exist
func Uncategorized(categories []model.Category, tasks []model.Task) []model.Task {
	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}
	var out []model.Task
	for _, t := range tasks {
		if !known[t.CategoryID] {
			out = append(out, t)
		}
	}
	return out
}

// TimelineDays is the length of the activity timeline
const TimelineDays = 7

// DayActivity is one day of the activity timeline
type DayActivity struct {
	Date      time.Time `json:"date"`
	Created   int       `json:"created"`
	Completed int       `json:"completed"`
}

// Timeline returns the last TimelineDays calendar days ending today, in loc,
// oldest first. Completion is attributed to the day of the task's last
// update, which is when it was marked completed unless edited later.
func Timeline(tasks []model.Task, now time.Time, loc *time.Location) []DayActivity {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	days := make([]DayActivity, TimelineDays)
	for i := range days {
		days[i].Date = today.AddDate(0, 0, i-(TimelineDays-1))
	}

	dayIndex := func(t time.Time) int {
		t = t.In(loc)
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		for i := range days {
			if days[i].Date.Equal(d) {
				return i
			}
		}
		return -1
	}

	for _, t := range tasks {
		if i := dayIndex(t.CreatedAt); i >= 0 {
			days[i].Created++
		}
		if t.IsCompleted() {
			if i := dayIndex(t.UpdatedAt); i >= 0 {
				days[i].Completed++
			}
		}
	}
	return days
}

// Search keeps tasks whose title or description contains term, ignoring
// case. An empty term keeps everything.
func Search(tasks []model.Task, term string) []model.Task {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return tasks
	}
	var out []model.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), term) ||
			strings.Contains(strings.ToLower(t.Description), term) {
			out = append(out, t)
		}
	}
	return out
}

// Filter selects tasks by status, priority and category. Zero fields match all.
type Filter struct {
	Status     model.Status
	Priority   model.Priority
	CategoryID string
	Term       string
	OverdueAt  time.Time // when set, only tasks overdue at this instant
}

// Apply returns the tasks matching f, in their original order
func (f Filter) Apply(tasks []model.Task) []model.Task {
	var out []model.Task
	for _, t := range Search(tasks, f.Term) {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if !f.OverdueAt.IsZero() && !t.IsOverdue(f.OverdueAt) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// SortForDisplay orders open tasks before completed ones, then by priority,
// then by due date, then by creation time
func SortForDisplay(tasks []model.Task) []model.Task {
	out := make([]model.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsCompleted() != b.IsCompleted() {
			return !a.IsCompleted()
		}
		if a.Priority.Order() != b.Priority.Order() {
			return a.Priority.Order() < b.Priority.Order()
		}
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

// Dashboard bundles every projection the dashboard shows
type Dashboard struct {
	Stats      Stats          `json:"stats"`
	Statuses   StatusCounts   `json:"statuses"`
	Categories []CategoryStat `json:"categories"`
	Timeline   []DayActivity  `json:"timeline"`
}

// BuildDashboard computes every dashboard projection at once
func BuildDashboard(categories []model.Category, tasks []model.Task, now time.Time, loc *time.Location) Dashboard {
	return Dashboard{
		Stats:      Statistics(tasks, now),
		Statuses:   StatusBreakdown(tasks),
		Categories: CategoryBreakdown(categories, tasks),
		Timeline:   Timeline(tasks, now, loc),
	}
}

// CategoryStream joins both collections into per-category counts
func CategoryStream(categories stream.Stream[[]model.Category], tasks stream.Stream[[]model.Task]) stream.Stream[[]CategoryStat] {
	return stream.CombineLatest(categories, tasks, CategoryBreakdown)
}

// TimelineStream recomputes the activity timeline on every task change
func TimelineStream(tasks stream.Stream[[]model.Task], clock func() time.Time, loc *time.Location) stream.Stream[[]DayActivity] {
	return stream.Map(tasks, func(ts []model.Task) []DayActivity {
		return Timeline(ts, clock(), loc)
	})
}

// DashboardStream recomputes the whole dashboard when either collection changes
func DashboardStream(categories stream.Stream[[]model.Category], tasks stream.Stream[[]model.Task], clock func() time.Time, loc *time.Location) stream.Stream[Dashboard] {
	return stream.CombineLatest(categories, tasks, func(cs []model.Category, ts []model.Task) Dashboard {
		return BuildDashboard(cs, ts, clock(), loc)
	})
}
