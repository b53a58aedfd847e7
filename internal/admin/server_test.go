package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatjack/chatjack/internal/blackjack"
	"github.com/chatjack/chatjack/internal/stats"
)

type fakeProvider struct {
	snapshots []blackjack.Snapshot
}

func (f *fakeProvider) Snapshots() []blackjack.Snapshot { return f.snapshots }

func newTestServer(t *testing.T, provider StatusProvider) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	tracker := stats.NewTracker(filepath.Join(t.TempDir(), "stats.json"), logger, quartz.NewMock(t))
	tracker.Record("#demo", "alice", blackjack.Result{
		Username: "alice", HandValue: 20, Outcome: blackjack.OutcomeWin, Hand: "K♠ 10♥",
	})

	srv := httptest.NewServer(NewServer("localhost:0", provider, tracker, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var body map[string]string
	getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, "ok", body["status"])
}

func TestStatusEmpty(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var body StatusResponse
	getJSON(t, srv.URL+"/api/status", &body)
	assert.NotNil(t, body.Channels)
	assert.Empty(t, body.Channels)
}

func TestStatusWithSessions(t *testing.T) {
	session := blackjack.NewSession("#demo", nil, 6)
	srv := newTestServer(t, &fakeProvider{snapshots: []blackjack.Snapshot{session.Snapshot()}})

	var body StatusResponse
	getJSON(t, srv.URL+"/api/status", &body)
	require.Len(t, body.Channels, 1)
	assert.Equal(t, "#demo", body.Channels[0].Channel)
	assert.Equal(t, "waiting", body.Channels[0].State)
}

func TestChannelStats(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var body ChannelStatsResponse
	getJSON(t, srv.URL+"/api/stats/demo", &body)
	assert.Equal(t, "#demo", body.Channel)
	require.Len(t, body.Leaderboard, 1)
	assert.Equal(t, "alice", body.Leaderboard[0].Player)
	assert.Equal(t, 1, body.Leaderboard[0].Stats.Wins)
}

func TestChannelStatsUnknownChannel(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	resp, err := http.Get(srv.URL + "/api/stats/nowhere")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsTotals(t *testing.T) {
	srv := newTestServer(t, &fakeProvider{})

	var body StatsResponse
	getJSON(t, srv.URL+"/api/stats", &body)
	assert.Equal(t, 1, body.Channels)
	assert.Equal(t, 1, body.Players)
	assert.Equal(t, 1, body.Games)
}
