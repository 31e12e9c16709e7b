package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/taskdeck/internal/app"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/stream"
	"github.com/existflow/taskdeck/internal/views"
)

// Pane represents which pane is focused
type Pane int

const (
	PaneSidebar Pane = iota
	PaneTaskList
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeAddCategory
	ModeEditTask
	ModeFilter
	ModeConfirmDelete
	ModeHelp
)

// recentlyDoneDelay keeps a just-completed task in place before it sinks
const recentlyDoneDelay = 10 * time.Second

// Model is the main TUI model
type Model struct {
	app        *app.App
	dash       views.Dashboard
	categories []model.Category
	allTasks   []model.Task // Every task, unfiltered
	tasks      []model.Task // Tasks shown for the selected sidebar entry

	// Store changes signal this channel; a tea.Cmd turns them into messages
	changes chan struct{}
	sub     *stream.Subscription

	// UI state
	width     int
	height    int
	pane      Pane
	mode      Mode
	catCursor int // 0 is "All tasks", then one entry per category
	cursor    int

	// Input
	input textinput.Model

	// Sorting state
	recentlyDone map[string]time.Time

	// Filter
	filterText string

	message string
}

// NewModel creates a new TUI model over the app's stores
func NewModel(a *app.App) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Enter task..."
	ti.CharLimit = model.MaxTitleLength + 40
	ti.Width = 50

	m := Model{
		app:          a,
		pane:         PaneTaskList,
		mode:         ModeNormal,
		input:        ti,
		recentlyDone: make(map[string]time.Time),
		changes:      make(chan struct{}, 1), // Buffered to avoid blocking the store
	}

	// The listener runs inside the store's publish, so it only signals
	m.sub = a.Dashboard().Subscribe(func(views.Dashboard) {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	})

	m.loadData()
	logger.Debug("TUI model initialized",
		logger.F("categories", len(m.categories)),
		logger.F("tasks", len(m.allTasks)))
	return m
}

// Close stops listening to the stores
func (m Model) Close() {
	m.sub.Unsubscribe()
}

func (m *Model) loadData() {
	m.categories = m.app.Categories.Snapshot()
	m.allTasks = m.app.Tasks.Snapshot()
	m.dash = m.app.DashboardSnapshot()

	if m.catCursor > len(m.categories) {
		m.catCursor = 0
	}

	filter := views.Filter{Term: m.filterText}
	if c := m.currentCategory(); c != nil {
		filter.CategoryID = c.ID
	}
	m.tasks = m.sortTasks(filter.Apply(m.allTasks))

	if m.cursor >= len(m.tasks) {
		m.cursor = max(len(m.tasks)-1, 0)
	}
}

// sortTasks orders for display, but keeps recently completed tasks where
// they were as if still open
func (m *Model) sortTasks(tasks []model.Task) []model.Task {
	now := m.app.Now()
	held := make([]model.Task, len(tasks))
	for i, t := range tasks {
		held[i] = t
		if done, ok := m.recentlyDone[t.ID]; ok && t.IsCompleted() && now.Sub(done) < recentlyDoneDelay {
			held[i].Status = model.StatusInProgress
		}
	}

	sorted := views.SortForDisplay(held)
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for i := range sorted {
		sorted[i] = byID[sorted[i].ID]
	}
	return sorted
}

// currentCategory is nil when "All tasks" is selected
func (m *Model) currentCategory() *model.Category {
	if m.catCursor > 0 && m.catCursor <= len(m.categories) {
		return &m.categories[m.catCursor-1]
	}
	return nil
}

func (m *Model) currentTask() *model.Task {
	if m.cursor < len(m.tasks) {
		return &m.tasks[m.cursor]
	}
	return nil
}
