// Package tui is the live dashboard: a terminal view of every channel's
// game session and the stats totals, polled from the admin API of a
// running bot.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/chatjack/chatjack/internal/admin"
)

const pollInterval = 2 * time.Second

type pollMsg struct {
	status admin.StatusResponse
	stats  admin.StatsResponse
	err    error
}

type tickMsg time.Time

// DashboardModel is the Bubble Tea model for the dashboard.
type DashboardModel struct {
	client *apiClient
	logger *log.Logger

	sessionTable table.Model
	status       admin.StatusResponse
	stats        admin.StatsResponse
	lastErr      error
	lastUpdate   time.Time

	width    int
	height   int
	quitting bool
}

// NewDashboardModel creates a dashboard polling the admin API at addr.
func NewDashboardModel(addr string, logger *log.Logger) *DashboardModel {
	columns := []table.Column{
		{Title: "Channel", Width: 20},
		{Title: "State", Width: 12},
		{Title: "Players", Width: 8},
		{Title: "Dealer", Width: 12},
		{Title: "Game ID", Width: 14},
	}

	st := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4"))
	st.SetStyles(styles)

	return &DashboardModel{
		client:       newAPIClient(addr),
		logger:       logger.WithPrefix("tui"),
		sessionTable: st,
	}
}

// Init starts the first poll.
func (m *DashboardModel) Init() tea.Cmd {
	return m.poll()
}

func (m *DashboardModel) poll() tea.Cmd {
	return func() tea.Msg {
		status, err := m.client.fetchStatus()
		if err != nil {
			return pollMsg{err: err}
		}
		stats, err := m.client.fetchStats()
		if err != nil {
			return pollMsg{err: err}
		}
		return pollMsg{status: status, stats: stats}
	}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages in the dashboard.
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := m.height - 8; h > 2 {
			m.sessionTable.SetHeight(h)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.poll()
		}

	case pollMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.logger.Debug("Poll failed", "error", msg.err)
		} else {
			m.lastErr = nil
			m.status = msg.status
			m.stats = msg.stats
			m.lastUpdate = time.Now()
			m.sessionTable.SetRows(sessionRows(msg.status))
		}
		return m, scheduleTick()

	case tickMsg:
		return m, m.poll()
	}

	var cmd tea.Cmd
	m.sessionTable, cmd = m.sessionTable.Update(msg)
	return m, cmd
}

func sessionRows(status admin.StatusResponse) []table.Row {
	rows := make([]table.Row, 0, len(status.Channels))
	for _, snap := range status.Channels {
		gameID := snap.GameID
		if len(gameID) > 12 {
			gameID = gameID[:12]
		}
		rows = append(rows, table.Row{
			snap.Channel,
			snap.State,
			fmt.Sprintf("%d/%d", snap.PlayerCount, snap.MaxPlayers),
			snap.DealerUpCard,
			gameID,
		})
	}
	return rows
}

// View renders the dashboard.
func (m *DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	title := TitleStyle.Render("chatjack dashboard")

	totals := TotalsStyle.Render(fmt.Sprintf(
		"channels: %d | players: %d | games: %d | uptime: %s",
		m.stats.Channels, m.stats.Players, m.stats.Games,
		(time.Duration(m.status.UptimeSeconds) * time.Second).String()))

	statusLine := StatusBarStyle.Render(fmt.Sprintf("last update: %s", m.renderLastUpdate()))
	if m.lastErr != nil {
		statusLine = ErrorStyle.Render(fmt.Sprintf("admin API unreachable: %v", m.lastErr))
	}

	help := HelpStyle.Render("r: refresh | q: quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		totals,
		TableBorderStyle.Render(m.sessionTable.View()),
		statusLine,
		help,
	)
}

func (m *DashboardModel) renderLastUpdate() string {
	if m.lastUpdate.IsZero() {
		return "never"
	}
	return m.lastUpdate.Format("15:04:05")
}

// Run starts the dashboard and blocks until the user quits.
func Run(addr string, logger *log.Logger) error {
	p := tea.NewProgram(NewDashboardModel(addr, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
