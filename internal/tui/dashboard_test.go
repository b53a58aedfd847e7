package tui

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatjack/chatjack/internal/admin"
	"github.com/chatjack/chatjack/internal/blackjack"
)

func TestAPIClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/status":
			_, _ = w.Write([]byte(`{"uptime_seconds":90,"channels":[{"channel":"#demo","state":"playing","player_count":2,"max_players":6}]}`))
		case "/api/stats":
			_, _ = w.Write([]byte(`{"channels":1,"players":4,"games":20}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL)

	status, err := c.fetchStatus()
	require.NoError(t, err)
	assert.Equal(t, 90, status.UptimeSeconds)
	require.Len(t, status.Channels, 1)
	assert.Equal(t, "#demo", status.Channels[0].Channel)

	stats, err := c.fetchStats()
	require.NoError(t, err)
	assert.Equal(t, 20, stats.Games)
}

func TestAPIClientAddsScheme(t *testing.T) {
	c := newAPIClient("localhost:8723")
	assert.Equal(t, "http://localhost:8723", c.baseURL)
}

func TestDashboardShowsSessions(t *testing.T) {
	m := NewDashboardModel("localhost:0", log.New(io.Discard))

	model, _ := m.Update(pollMsg{
		status: admin.StatusResponse{
			UptimeSeconds: 60,
			Channels: []blackjack.Snapshot{
				{Channel: "#demo", State: "playing", PlayerCount: 2, MaxPlayers: 6, DealerUpCard: "9♦ [?]"},
			},
		},
		stats: admin.StatsResponse{Channels: 1, Players: 3, Games: 12},
	})
	m = model.(*DashboardModel)

	view := m.View()
	assert.Contains(t, view, "#demo")
	assert.Contains(t, view, "playing")
	assert.Contains(t, view, "2/6")
	assert.Contains(t, view, "games: 12")
}

func TestDashboardShowsPollError(t *testing.T) {
	m := NewDashboardModel("localhost:0", log.New(io.Discard))

	model, _ := m.Update(pollMsg{err: assert.AnError})
	m = model.(*DashboardModel)

	assert.Contains(t, m.View(), "admin API unreachable")
}

func TestDashboardQuitKeys(t *testing.T) {
	m := NewDashboardModel("localhost:0", log.New(io.Discard))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
