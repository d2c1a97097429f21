package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-i2p/connpool/lib/pool"
)

// StatusModel renders a pool.Stats snapshot.
type StatusModel struct {
	stats  *pool.Stats
	width  int
	height int
}

// NewStatusModel creates a new status view model.
func NewStatusModel() StatusModel {
	return StatusModel{}
}

// SetData updates the status data.
func (m *StatusModel) SetData(stats pool.Stats) {
	m.stats = &stats
}

// SetDimensions sets the view dimensions.
func (m *StatusModel) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// View renders the status view.
func (m StatusModel) View() string {
	if m.stats == nil {
		return styles.Muted.Render("Loading status...")
	}

	stateLabel := "open"
	if m.stats.Closed {
		stateLabel = "closed"
	}

	idleStyle := styles.Muted
	if m.stats.Idle > 0 {
		idleStyle = styles.Success
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.BoxTitle.Render("Pool Status"),
		"",
		m.statusRow("State", ConnectionStateStyle(stateLabel).Render(stateLabel)),
		m.statusRow("Idle connections", idleStyle.Render(strconv.Itoa(m.stats.Idle))),
	)

	return styles.Box.Width(60).Render(content)
}

func (m StatusModel) statusRow(label, value string) string {
	return styles.Muted.Width(20).Render(label+":") + " " + value
}
