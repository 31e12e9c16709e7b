package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Tab         key.Binding
	Enter       key.Binding
	Add         key.Binding
	Category    key.Binding
	Edit        key.Binding
	Done        key.Binding
	CycleStatus key.Binding
	High        key.Binding
	Medium      key.Binding
	Low         key.Binding
	Delete      key.Binding
	Filter      key.Binding
	Help        key.Binding
	Quit        key.Binding
	Escape      key.Binding
}

var keys = keyMap{
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "categories")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "tasks")),
	Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/toggle")),
	Add:         key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Category:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new category")),
	Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit title")),
	Done:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	CycleStatus: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle status")),
	High:        key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "high priority")),
	Medium:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "medium priority")),
	Low:         key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "low priority")),
	Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}

// helpBindings is the order keys appear in the help screen
func helpBindings() []key.Binding {
	return []key.Binding{
		keys.Up, keys.Down, keys.Left, keys.Right, keys.Tab, keys.Enter,
		keys.Add, keys.Category, keys.Edit, keys.Done, keys.CycleStatus,
		keys.High, keys.Medium, keys.Low, keys.Delete, keys.Filter,
		keys.Escape, keys.Help, keys.Quit,
	}
}
