package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/taskdeck/internal/model"
	"github.com/existflow/taskdeck/internal/views"
)

const sidebarWidth = 26

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderStats()
	bodyHeight := max(m.height-lipgloss.Height(header)-2, 3)

	sidebar := m.renderSidebar(bodyHeight)
	taskList := m.renderTaskList(bodyHeight)
	statusBar := m.renderStatusBar()

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, taskList)

	switch m.mode {
	case ModeAddTask, ModeAddCategory, ModeEditTask, ModeConfirmDelete:
		mainContent = lipgloss.Place(
			m.width, bodyHeight,
			lipgloss.Center, lipgloss.Center,
			m.renderModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	case ModeHelp:
		mainContent = m.renderHelp(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, mainContent, statusBar)
}

// renderStats draws the completion summary and the weekly activity sparkline
func (m Model) renderStats() string {
	st := m.dash.Stats
	title := HeaderStyle.Render("TaskDeck")

	summary := fmt.Sprintf("%s %d%%  %s %d%%  %s",
		lipgloss.NewStyle().Foreground(Completed).Render("done"), st.CompletedPct,
		lipgloss.NewStyle().Foreground(InProgress).Render("pending"), st.PendingPct,
		overdueLabel(st.OverdueCount))

	s := m.dash.Statuses
	counts := HelpStyle.Render(fmt.Sprintf("todo %d · doing %d · done %d", s.NotStarted, s.InProgress, s.Completed))

	created := make([]int, len(m.dash.Timeline))
	completed := make([]int, len(m.dash.Timeline))
	for i, d := range m.dash.Timeline {
		created[i] = d.Created
		completed[i] = d.Completed
	}
	activity := HelpStyle.Render("7d new ") + sparkline(created) +
		HelpStyle.Render("  done ") + lipgloss.NewStyle().Foreground(Completed).Render(sparkline(completed))

	line := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", summary, "   ", counts, "   ", activity)
	return StatsStyle.Width(m.width).Render(line)
}

func overdueLabel(n int) string {
	if n == 0 {
		return HelpStyle.Render("none overdue")
	}
	return OverdueStyle.Render(fmt.Sprintf("%d overdue", n))
}

func (m Model) renderSidebar(height int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Categories") + "\n")
	b.WriteString(HelpStyle.Render(m.app.Now().Format("Mon 02 Jan 15:04")) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", sidebarWidth-4)) + "\n\n")

	pendingAll := len(m.allTasks) - m.dash.Statuses.Completed
	b.WriteString(m.sidebarLine(0, "All tasks", pendingAll, len(m.allTasks)) + "\n")

	for i, cs := range m.dash.Categories {
		name := CategoryStyle(cs.Category).Render("●") + " " + truncate(cs.Name, 11)
		b.WriteString(m.sidebarLine(i+1, name, cs.TaskCount-cs.CompletedCount, cs.TaskCount) + "\n")
	}

	if n := len(views.Uncategorized(m.categories, m.allTasks)); n > 0 {
		b.WriteString("\n" + HelpStyle.Render(fmt.Sprintf("%d uncategorized", n)) + "\n")
	}

	b.WriteString("\n" + HelpStyle.Render("c new category"))
	return SidebarStyle.Width(sidebarWidth).Height(height).Render(b.String())
}

func (m Model) sidebarLine(index int, label string, pending, total int) string {
	cursor := "  "
	style := CategoryItemStyle
	if index == m.catCursor {
		cursor = "❯ "
		if m.pane == PaneSidebar {
			style = CategoryItemSelectedStyle
		}
	}
	return style.Render(fmt.Sprintf("%s%s %d/%d", cursor, label, pending, total))
}

func (m Model) renderTaskList(height int) string {
	width := max(m.width-sidebarWidth-2, 20)
	var b strings.Builder

	title := "All tasks"
	if c := m.currentCategory(); c != nil {
		title = c.Name
	}
	pending := 0
	for _, t := range m.tasks {
		if !t.IsCompleted() {
			pending++
		}
	}
	header := fmt.Sprintf("%s (%d pending)", title, pending)
	if m.filterText != "" {
		header += HelpStyle.Render("  /" + m.filterText)
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 1))) + "\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(HelpStyle.Render("  No tasks. Press 'a' to add one."))
	}

	now := m.app.Now()
	titleWidth := max(width-34, 10)
	for i, t := range m.tasks {
		cursor := "  "
		style := TaskItemStyle
		if i == m.cursor && m.pane == PaneTaskList {
			cursor = "❯ "
			style = TaskItemSelectedStyle
		}

		icon := "[ ]"
		switch {
		case t.IsCompleted():
			icon = "[x]"
			style = TaskDoneStyle
		case t.Status == model.StatusInProgress:
			icon = "[~]"
		}

		due := t.DueDate.In(now.Location()).Format("Jan 02")
		dueText := HelpStyle.Render(due)
		if t.IsOverdue(now) {
			dueText = OverdueStyle.Render(due)
		}

		check := style.Render(cursor + icon)
		desc := style.Render(fmt.Sprintf(" %-*s ", titleWidth, truncate(t.Title, titleWidth)))
		status := StatusStyle(t.Status).Render(fmt.Sprintf("%-6s", t.Status.Label()))

		b.WriteString(check + desc + FormatPriority(t.Priority) + " " + status + " " + dueText + "\n")
	}

	return TaskListStyle.Width(width).Height(height).Render(b.String())
}

func (m Model) renderStatusBar() string {
	if m.mode == ModeFilter {
		return StatusBarStyle.Width(m.width).Render("/" + m.input.View() + fmt.Sprintf("  [%d matches]", len(m.tasks)))
	}

	help := "a:add  c:category  e:edit  x:done  s:status  1-3:priority  d:del  /:filter  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	} else if m.filterText != "" {
		help = fmt.Sprintf("/%s  [%d matches]  Esc:clear", m.filterText, len(m.tasks))
	}
	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderModal() string {
	var title string
	switch m.mode {
	case ModeAddTask:
		title = "Add Task"
		if c := m.targetCategory(); c != nil {
			title = "Add Task to: " + c.Name
		}
	case ModeAddCategory:
		title = "New Category"
	case ModeEditTask:
		title = "Edit Task"
	case ModeConfirmDelete:
		return ModalStyle.Render(
			lipgloss.NewStyle().Bold(true).Render(m.deletePrompt()) + "\n\n" +
				HelpStyle.Render("y:delete  any other key:cancel"))
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")
	return ModalStyle.Render(content)
}

func (m Model) deletePrompt() string {
	if m.pane == PaneSidebar {
		if c := m.currentCategory(); c != nil {
			return fmt.Sprintf("Delete category %q? Its tasks are kept.", c.Name)
		}
	}
	if t := m.currentTask(); t != nil {
		return fmt.Sprintf("Delete task %q?", t.Title)
	}
	return "Delete?"
}

func (m Model) renderHelp(height int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Keyboard Shortcuts") + "\n\n")
	for _, k := range helpBindings() {
		h := k.Help()
		b.WriteString(fmt.Sprintf("  %-8s %s\n", h.Key, h.Desc))
	}
	b.WriteString("\n" + HelpStyle.Render("Press any key to close"))
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, ModalStyle.Render(b.String()))
}
