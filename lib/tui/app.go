// Package tui provides a small live-refreshing terminal status view over
// a pool.Pool, built with BubbleTea.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-i2p/connpool/lib/pool"
)

// Config holds TUI configuration.
type Config struct {
	// RefreshInterval is how often the status view polls pool.Stats().
	RefreshInterval time.Duration
}

// Model is the status-view TUI application model.
type Model struct {
	pool *pool.Pool

	width  int
	height int
	ready  bool

	refreshInterval time.Duration
	lastRefresh     time.Time

	spinner    spinner.Model
	statusView StatusModel
}

// New builds a Model that polls p.Stats() on a timer.
func New(p *pool.Pool, cfg Config) *Model {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		pool:            p,
		refreshInterval: interval,
		spinner:         s,
		statusView:      NewStatusModel(),
	}
}

type tickMsg time.Time

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.refreshCmd(),
		tea.SetWindowTitle("poolctl"),
	)
}

func (m *Model) refreshCmd() tea.Cmd {
	p := m.pool
	return func() tea.Msg {
		return p.Stats()
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			cmds = append(cmds, m.refreshCmd())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.statusView.SetDimensions(m.width, m.height-3)

	case pool.Stats:
		m.statusView.SetData(msg)
		m.lastRefresh = time.Now()
		cmds = append(cmds, tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		}))

	case tickMsg:
		cmds = append(cmds, m.refreshCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.ready {
		return fmt.Sprintf("%s Loading...", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("poolctl"))
	b.WriteString("\n\n")
	b.WriteString(m.statusView.View())
	b.WriteString("\n\n")
	b.WriteString(styles.HelpText.Render("r refresh • q quit"))
	return b.String()
}
