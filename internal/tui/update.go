package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskdeck/internal/logger"
	"github.com/existflow/taskdeck/internal/model"
)

// tickMsg is sent every second for time updates
type tickMsg time.Time

// changedMsg is sent when either store published a new state
type changedMsg struct{}

// Init starts the clock and the change listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForChange())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForChange blocks until the stores signal a change
func (m Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return changedMsg{}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Let recently completed tasks sink once their delay passes
		needsRefresh := false
		now := m.app.Now()
		for id, doneTime := range m.recentlyDone {
			if now.Sub(doneTime) >= recentlyDoneDelay {
				delete(m.recentlyDone, id)
				needsRefresh = true
			}
		}
		if needsRefresh {
			m.loadData()
		}
		return m, tickCmd()

	case changedMsg:
		m.loadData()
		return m, m.waitForChange()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask, ModeAddCategory, ModeEditTask:
			return m.updateInput(msg)
		case ModeFilter:
			return m.updateFilter(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneSidebar {
			m.pane = PaneTaskList
		} else {
			m.pane = PaneSidebar
		}

	case key.Matches(msg, keys.Left):
		m.pane = PaneSidebar

	case key.Matches(msg, keys.Right):
		m.pane = PaneTaskList

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case key.Matches(msg, keys.High):
		m.handlePriority(model.PriorityHigh)

	case key.Matches(msg, keys.Medium):
		m.handlePriority(model.PriorityMedium)

	case key.Matches(msg, keys.Low):
		m.handlePriority(model.PriorityLow)

	case key.Matches(msg, keys.Add):
		return m.startInput(ModeAddTask, "", "Task title  due:+3d  !h/!m/!l")

	case key.Matches(msg, keys.Category):
		return m.startInput(ModeAddCategory, "", "Category name...")

	case key.Matches(msg, keys.Edit):
		if t := m.currentTask(); t != nil && m.pane == PaneTaskList {
			return m.startInput(ModeEditTask, t.Title, "Edit title...")
		}

	case key.Matches(msg, keys.Enter):
		if m.pane == PaneSidebar {
			m.pane = PaneTaskList
		} else {
			m.handleToggleDone()
		}

	case key.Matches(msg, keys.Done):
		m.handleToggleDone()

	case key.Matches(msg, keys.CycleStatus):
		m.handleCycleStatus()

	case key.Matches(msg, keys.Delete):
		if m.pane == PaneSidebar && m.currentCategory() != nil ||
			m.pane == PaneTaskList && m.currentTask() != nil {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, keys.Filter):
		return m.startInput(ModeFilter, m.filterText, "/")

	case key.Matches(msg, keys.Escape):
		if m.filterText != "" {
			m.filterText = ""
			m.loadData()
			m.message = "Filter cleared"
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneSidebar {
		if m.catCursor > 0 {
			m.catCursor--
			m.cursor = 0
			m.loadData()
		}
	} else if m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneSidebar {
		if m.catCursor < len(m.categories) {
			m.catCursor++
			m.cursor = 0
			m.loadData()
		}
	} else if m.cursor < len(m.tasks)-1 {
		m.cursor++
	}
}

func (m Model) startInput(mode Mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.Focus()
	m.input.CursorEnd()
	return m, textinput.Blink
}

// report shows err in the status bar, or ok when it is nil
func (m *Model) report(err error, ok string) {
	if err != nil {
		logger.Warn("TUI action failed", logger.F("error", err))
		m.message = "Error: " + err.Error()
		return
	}
	m.message = ok
}

func (m *Model) handlePriority(p model.Priority) {
	t := m.currentTask()
	if m.pane != PaneTaskList || t == nil {
		return
	}
	_, err := m.app.Tasks.Update(context.Background(), t.ID, model.TaskPatch{Priority: &p})
	m.report(err, fmt.Sprintf("Priority set to %s", strings.ToLower(string(p))))
}

func (m *Model) handleToggleDone() {
	t := m.currentTask()
	if m.pane != PaneTaskList || t == nil {
		return
	}
	status := model.StatusCompleted
	if t.IsCompleted() {
		status = model.StatusNotStarted
	}
	m.setStatus(*t, status)
}

func (m *Model) handleCycleStatus() {
	t := m.currentTask()
	if m.pane != PaneTaskList || t == nil {
		return
	}
	m.setStatus(*t, t.Status.Next())
}

func (m *Model) setStatus(t model.Task, status model.Status) {
	if status == model.StatusCompleted {
		m.recentlyDone[t.ID] = m.app.Now()
	} else {
		delete(m.recentlyDone, t.ID)
	}
	_, err := m.app.Tasks.SetStatus(context.Background(), t.ID, status)
	m.report(err, fmt.Sprintf("%s: %s", status.Label(), t.Title))
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if msg.String() != "y" && msg.String() != "Y" {
		m.message = "Cancelled"
		return m, nil
	}

	ctx := context.Background()
	if m.pane == PaneSidebar {
		if c := m.currentCategory(); c != nil {
			name := c.Name
			err := m.app.Categories.Delete(ctx, c.ID)
			m.catCursor = 0
			m.report(err, "Deleted category: "+name)
		}
		return m, nil
	}

	if t := m.currentTask(); t != nil {
		title := t.Title
		err := m.app.Tasks.Delete(ctx, t.ID)
		delete(m.recentlyDone, t.ID)
		m.report(err, "Deleted: "+title)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = ModeNormal
		if value == "" {
			return m, nil
		}

		switch mode {
		case ModeAddTask:
			m.addTask(value)
		case ModeAddCategory:
			m.addCategory(value)
		case ModeEditTask:
			m.editTitle(value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// targetCategory is the selected category, or the first one under "All tasks"
func (m *Model) targetCategory() *model.Category {
	if c := m.currentCategory(); c != nil {
		return c
	}
	if len(m.categories) > 0 {
		return &m.categories[0]
	}
	return nil
}

func (m *Model) addTask(input string) {
	cat := m.targetCategory()
	if cat == nil {
		m.message = "Create a category first (c)"
		return
	}

	now := m.app.Now()
	q, err := parseQuickAdd(input, now, time.Local)
	if err != nil {
		m.report(err, "")
		return
	}
	fields := model.TaskFields{
		Title:      q.Title,
		DueDate:    q.Due,
		Priority:   q.Priority,
		Status:     model.StatusNotStarted,
		CategoryID: cat.ID,
	}
	if err := model.ValidateNewTask(fields, now); err != nil {
		m.report(err, "")
		return
	}
	_, err = m.app.Tasks.Add(context.Background(), fields)
	m.report(err, fmt.Sprintf("Added to %s: %s", cat.Name, q.Title))
}

func (m *Model) addCategory(name string) {
	if err := model.ValidateCategoryName(name); err != nil {
		m.report(err, "")
		return
	}
	_, err := m.app.Categories.Add(context.Background(), model.CategoryFields{
		Name:  name,
		Color: model.DefaultCategoryColor,
	})
	m.report(err, "Created category: "+name)
}

func (m *Model) editTitle(title string) {
	t := m.currentTask()
	if t == nil {
		return
	}
	patch := model.TaskPatch{Title: &title}
	if err := model.ValidateTaskPatch(patch, m.app.Now()); err != nil {
		m.report(err, "")
		return
	}
	_, err := m.app.Tasks.Update(context.Background(), t.ID, patch)
	m.report(err, "Updated: "+title)
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.filterText = ""
		m.loadData()
		return m, nil

	case key.Matches(msg, keys.Enter):
		m.mode = ModeNormal
		m.pane = PaneTaskList
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// Live filter as the user types
	m.filterText = m.input.Value()
	m.cursor = 0
	m.loadData()
	return m, cmd
}
