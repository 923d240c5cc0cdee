package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/faves/internal/models"
	"github.com/desertthunder/faves/internal/shared"
	"github.com/desertthunder/faves/internal/tasks"
)

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	controller *tasks.Controller
	logger     *log.Logger
	state      tasks.State
	form       *CredentialForm
	products   list.Model
	help       help.Model
	keys       keyMap
	width      int
	height     int
}

// NewModel creates a new TUI model around controller.
func NewModel(ctx context.Context, controller *tasks.Controller, logger *log.Logger) *Model {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	products := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	products.Title = "Products"
	products.SetFilteringEnabled(false)
	products.SetShowHelp(false)
	products.DisableQuitKeybindings()

	m := &Model{
		ctx:        ctx,
		controller: controller,
		logger:     logger,
		products:   products,
		help:       help.New(),
		keys:       newKeyMap(),
	}
	m.form = m.newForm()
	m.sync()
	return m
}

func (m *Model) newForm() *CredentialForm {
	return NewCredentialForm(
		func(creds models.Credentials) tea.Cmd { return m.run(m.controller.Login(creds)) },
		func(creds models.Credentials) tea.Cmd { return m.run(m.controller.Register(creds)) },
	)
}

// Init resolves the stored session and loads the catalogue.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.start(), m.form.Focus())
}

func (m *Model) start() tea.Cmd {
	return m.run(m.controller.Start()...)
}

// run wraps controller tasks as commands. Nil tasks are skipped.
func (m *Model) run(ts ...tasks.Task) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(ts))
	for _, task := range ts {
		if task == nil {
			continue
		}
		cmds = append(cmds, func() tea.Msg {
			return taskDoneMsg(task(m.ctx))
		})
	}
	return tea.Batch(cmds...)
}

// sync copies the controller state into the view. The form is rebuilt when the session ends.
func (m *Model) sync() tea.Cmd {
	wasAuthenticated := m.state.Authenticated()
	m.state = m.controller.State()

	var cmds []tea.Cmd
	if wasAuthenticated && !m.state.Authenticated() {
		m.form = m.newForm()
		cmds = append(cmds, m.form.Focus())
	}

	index := m.products.Index()
	cmds = append(cmds, m.products.SetItems(productItems(m.state.Rows())))
	if n := len(m.products.Items()); n > 0 {
		m.products.Select(min(index, n-1))
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.products.SetSize(msg.Width-4, max(msg.Height-m.headerHeight(), 4))
		return m, nil

	case Msg:
		ev, ok := msg.Event()
		if !ok {
			return m, nil
		}
		follow := m.controller.Apply(ev)
		return m, tea.Batch(m.sync(), m.run(follow...))

	case tea.KeyMsg:
		if m.state.Authenticated() {
			return m.handleListKeys(msg)
		}
		return m.handleFormKeys(msg)
	}

	if !m.state.Authenticated() {
		return m, m.form.Update(msg)
	}
	var cmd tea.Cmd
	m.products, cmd = m.products.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.form.keys.quit) {
		return m, tea.Quit
	}

	cmd := m.form.Update(msg)
	return m, tea.Batch(cmd, m.sync())
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.logout):
		if err := m.controller.Logout(m.ctx); err != nil {
			m.logger.Error("logout failed", "error", err)
		}
		return m, m.sync()

	case key.Matches(msg, m.keys.reload):
		return m, tea.Batch(m.run(m.controller.LoadProducts(), m.controller.LoadFavorites()), m.sync())

	case key.Matches(msg, m.keys.add):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		task := m.controller.AddFavorite(row.Product.ID)
		return m, tea.Batch(m.run(task), m.sync())

	case key.Matches(msg, m.keys.remove):
		row, ok := m.selected()
		if !ok || !row.Favorited() {
			return m, nil
		}
		task := m.controller.RemoveFavorite(row.Favorite.ID)
		return m, tea.Batch(m.run(task), m.sync())

	case key.Matches(msg, m.keys.toggle):
		row, ok := m.selected()
		if !ok {
			return m, nil
		}
		var task tasks.Task
		switch row.Action {
		case tasks.ActionAdd:
			task = m.controller.AddFavorite(row.Product.ID)
		case tasks.ActionRemove:
			task = m.controller.RemoveFavorite(row.Favorite.ID)
		}
		return m, tea.Batch(m.run(task), m.sync())
	}

	var cmd tea.Cmd
	m.products, cmd = m.products.Update(msg)
	return m, cmd
}

func (m *Model) selected() (tasks.Row, bool) {
	item, ok := m.products.SelectedItem().(productItem)
	if !ok {
		return tasks.Row{}, false
	}
	return item.row, true
}

func (m *Model) headerHeight() int {
	if m.state.Authenticated() {
		return 8
	}
	return 14
}

// View renders the session header, status line, product list and help.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Favorites"))
	b.WriteString("\n")

	if m.state.Authenticated() {
		b.WriteString(styles.ok.Render(fmt.Sprintf("Logged in as %s", m.state.Identity.Username)))
		b.WriteString("\n")
	} else {
		b.WriteString(m.form.View())
		b.WriteString("\n")
	}

	if m.state.Message != "" {
		b.WriteString(styles.err.Render(m.state.Message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.products.View())

	if m.state.Authenticated() {
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}
