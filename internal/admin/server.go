// Package admin exposes a small local HTTP API over the running bot:
// liveness, per-channel game state, and stats totals. The dashboard TUI is
// its only intended client; it binds to localhost by default.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chatjack/chatjack/internal/blackjack"
	"github.com/chatjack/chatjack/internal/stats"
)

// StatusProvider supplies point-in-time session snapshots.
type StatusProvider interface {
	Snapshots() []blackjack.Snapshot
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	UptimeSeconds int                  `json:"uptime_seconds"`
	Channels      []blackjack.Snapshot `json:"channels"`
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	Channels int `json:"channels"`
	Players  int `json:"players"`
	Games    int `json:"games"`
}

// LeaderboardEntry is one row of a channel leaderboard.
type LeaderboardEntry struct {
	Rank   int               `json:"rank"`
	Player string            `json:"player"`
	Stats  stats.PlayerStats `json:"stats"`
}

// ChannelStatsResponse is the /api/stats/{channel} payload.
type ChannelStatsResponse struct {
	Channel     string             `json:"channel"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// Server is the admin HTTP server.
type Server struct {
	addr     string
	provider StatusProvider
	tracker  *stats.Tracker
	logger   *log.Logger
	started  time.Time
}

// NewServer creates an admin server bound to addr.
func NewServer(addr string, provider StatusProvider, tracker *stats.Tracker, logger *log.Logger) *Server {
	return &Server{
		addr:     addr,
		provider: provider,
		tracker:  tracker,
		logger:   logger.WithPrefix("admin"),
		started:  time.Now(),
	}
}

// Handler returns the route table. Split out so tests can drive it with
// httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/stats/", s.handleChannelStats)
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Admin API listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshots := s.provider.Snapshots()
	if snapshots == nil {
		snapshots = []blackjack.Snapshot{}
	}
	s.writeJSON(w, StatusResponse{
		UptimeSeconds: int(time.Since(s.started).Seconds()),
		Channels:      snapshots,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	channels, players, games := s.tracker.Totals()
	s.writeJSON(w, StatsResponse{Channels: channels, Players: players, Games: games})
}

// handleChannelStats serves the wins leaderboard for one channel. The
// channel may be given with or without the '#' (URL-escaped as %23).
func (s *Server) handleChannelStats(w http.ResponseWriter, r *http.Request) {
	channel := strings.TrimPrefix(r.URL.Path, "/api/stats/")
	if channel == "" {
		http.NotFound(w, r)
		return
	}
	if !strings.HasPrefix(channel, "#") {
		channel = "#" + channel
	}

	names, players, err := s.tracker.Top(channel, stats.CategoryWins, 10)
	if err != nil {
		http.Error(w, "no stats recorded for channel", http.StatusNotFound)
		return
	}

	resp := ChannelStatsResponse{Channel: channel, Leaderboard: make([]LeaderboardEntry, len(names))}
	for i, name := range names {
		resp.Leaderboard[i] = LeaderboardEntry{Rank: i + 1, Player: name, Stats: players[i]}
	}
	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}
