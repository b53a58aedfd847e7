// Package stats aggregates per-channel, per-player blackjack results and
// persists them to a JSON file between runs. Persistence is best effort:
// a failed load starts empty, a failed save is logged and play continues.
package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/chatjack/chatjack/internal/blackjack"
	"github.com/chatjack/chatjack/internal/fileutil"
)

// PlayerStats holds everything tracked for one player in one channel.
type PlayerStats struct {
	GamesPlayed       int            `json:"games_played"`
	Wins              int            `json:"wins"`
	Losses            int            `json:"losses"`
	Pushes            int            `json:"pushes"`
	Blackjacks        int            `json:"blackjacks"`
	Busts             int            `json:"busts"`
	TotalHandValue    int            `json:"total_hand_value"`
	HighestHand       int            `json:"highest_hand"`
	CurrentWinStreak  int            `json:"current_win_streak"`
	LongestWinStreak  int            `json:"longest_win_streak"`
	CurrentLossStreak int            `json:"current_loss_streak"`
	LongestLossStreak int            `json:"longest_loss_streak"`
	HandDistribution  map[string]int `json:"hand_distribution,omitempty"`
	FirstGame         time.Time      `json:"first_game,omitzero"`
	LastGame          time.Time      `json:"last_game,omitzero"`
}

// WinRate returns the win percentage over decisive games (pushes excluded).
func (ps *PlayerStats) WinRate() float64 {
	decisive := ps.Wins + ps.Losses
	if decisive == 0 {
		return 0
	}
	return float64(ps.Wins) / float64(decisive) * 100
}

// BlackjackRate returns the percentage of games ending in a natural.
func (ps *PlayerStats) BlackjackRate() float64 {
	if ps.GamesPlayed == 0 {
		return 0
	}
	return float64(ps.Blackjacks) / float64(ps.GamesPlayed) * 100
}

// BustRate returns the percentage of games ending in a bust.
func (ps *PlayerStats) BustRate() float64 {
	if ps.GamesPlayed == 0 {
		return 0
	}
	return float64(ps.Busts) / float64(ps.GamesPlayed) * 100
}

// AverageHand returns the mean non-busted final hand value.
func (ps *PlayerStats) AverageHand() float64 {
	if ps.GamesPlayed == 0 {
		return 0
	}
	return float64(ps.TotalHandValue) / float64(ps.GamesPlayed)
}

// FavoriteHand returns the most frequent final hand value, or 0 when no
// hand has been recorded.
func (ps *PlayerStats) FavoriteHand() int {
	best, bestCount := 0, 0
	for hand, count := range ps.HandDistribution {
		if count > bestCount {
			var v int
			if _, err := fmt.Sscanf(hand, "%d", &v); err == nil {
				best, bestCount = v, count
			}
		}
	}
	return best
}

// Category selects a leaderboard ordering.
type Category string

const (
	CategoryWins       Category = "wins"
	CategoryWinRate    Category = "winrate"
	CategoryBlackjacks Category = "blackjacks"
	CategoryGames      Category = "games"
	CategoryStreak     Category = "streak"
)

// Categories lists the valid leaderboard categories in display order.
var Categories = []Category{CategoryWins, CategoryWinRate, CategoryBlackjacks, CategoryGames, CategoryStreak}

// ParseCategory validates a user-supplied category name.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ErrNoStats indicates the channel has no recorded games.
var ErrNoStats = errors.New("no stats recorded")

// Tracker stores stats for every channel and player. Safe for concurrent
// use; the admin API reads it while the bot records into it.
type Tracker struct {
	mu       sync.Mutex
	path     string
	logger   *log.Logger
	clock    quartz.Clock
	channels map[string]map[string]*PlayerStats
}

// NewTracker creates a tracker backed by the JSON file at path. An existing
// file is loaded; a missing or unreadable one starts the tracker empty.
func NewTracker(path string, logger *log.Logger, clock quartz.Clock) *Tracker {
	t := &Tracker{
		path:     path,
		logger:   logger.WithPrefix("stats"),
		clock:    clock,
		channels: make(map[string]map[string]*PlayerStats),
	}
	t.load()
	return t
}

func (t *Tracker) load() {
	if t.path == "" {
		return
	}
	data, err := os.ReadFile(t.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			t.logger.Warn("Failed to load stats file, starting empty", "path", t.path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, &t.channels); err != nil {
		t.logger.Warn("Failed to parse stats file, starting empty", "path", t.path, "error", err)
		t.channels = make(map[string]map[string]*PlayerStats)
		return
	}
	t.logger.Info("Loaded stats", "channels", len(t.channels), "path", t.path)
}

// save writes the stats file. Callers must hold t.mu.
func (t *Tracker) save() {
	if t.path == "" {
		return
	}
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.logger.Error("Failed to create stats directory", "dir", dir, "error", err)
			return
		}
	}
	data, err := json.MarshalIndent(t.channels, "", "  ")
	if err != nil {
		t.logger.Error("Failed to encode stats", "error", err)
		return
	}
	if err := fileutil.WriteFileAtomic(t.path, data, 0o644); err != nil {
		t.logger.Error("Failed to write stats file", "path", t.path, "error", err)
	}
}

func (t *Tracker) playerStats(channel, player string) *PlayerStats {
	channelStats, ok := t.channels[channel]
	if !ok {
		channelStats = make(map[string]*PlayerStats)
		t.channels[channel] = channelStats
	}
	ps, ok := channelStats[player]
	if !ok {
		ps = &PlayerStats{HandDistribution: make(map[string]int)}
		channelStats[player] = ps
	}
	return ps
}

// Record applies one round result for one player and saves.
func (t *Tracker) Record(channel, player string, result blackjack.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := t.playerStats(channel, player)
	now := t.clock.Now()

	ps.GamesPlayed++
	ps.LastGame = now
	if ps.FirstGame.IsZero() {
		ps.FirstGame = now
	}

	if result.HandValue > 0 && result.HandValue <= 21 {
		ps.TotalHandValue += result.HandValue
		if result.HandValue > ps.HighestHand {
			ps.HighestHand = result.HandValue
		}
		if ps.HandDistribution == nil {
			ps.HandDistribution = make(map[string]int)
		}
		ps.HandDistribution[fmt.Sprintf("%d", result.HandValue)]++
	}

	switch result.Outcome {
	case blackjack.OutcomeWin:
		ps.Wins++
		ps.CurrentWinStreak++
		ps.CurrentLossStreak = 0
		if ps.CurrentWinStreak > ps.LongestWinStreak {
			ps.LongestWinStreak = ps.CurrentWinStreak
		}
	case blackjack.OutcomeLoss:
		ps.Losses++
		ps.CurrentLossStreak++
		ps.CurrentWinStreak = 0
		if ps.CurrentLossStreak > ps.LongestLossStreak {
			ps.LongestLossStreak = ps.CurrentLossStreak
		}
	case blackjack.OutcomePush:
		// Pushes don't break streaks.
		ps.Pushes++
	}

	if result.Blackjack {
		ps.Blackjacks++
	}
	if result.Bust {
		ps.Busts++
	}

	t.save()
}

// Get returns a copy of one player's stats and whether any games exist.
func (t *Tracker) Get(channel, player string) (PlayerStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	channelStats, ok := t.channels[channel]
	if !ok {
		return PlayerStats{}, false
	}
	ps, ok := channelStats[player]
	if !ok || ps.GamesPlayed == 0 {
		return PlayerStats{}, false
	}
	return *ps, true
}

// Totals returns corpus-wide counts for the admin API.
func (t *Tracker) Totals() (channels, players, games int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	channels = len(t.channels)
	for _, channelStats := range t.channels {
		players += len(channelStats)
		for _, ps := range channelStats {
			games += ps.GamesPlayed
		}
	}
	return channels, players, games
}

type ranked struct {
	name  string
	stats *PlayerStats
}

// Top returns up to limit players for a channel ordered by category.
func (t *Tracker) Top(channel string, category Category, limit int) ([]string, []PlayerStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	channelStats, ok := t.channels[channel]
	if !ok {
		return nil, nil, ErrNoStats
	}

	players := make([]ranked, 0, len(channelStats))
	for name, ps := range channelStats {
		if ps.GamesPlayed > 0 {
			players = append(players, ranked{name, ps})
		}
	}
	if len(players) == 0 {
		return nil, nil, ErrNoStats
	}

	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i].stats, players[j].stats
		switch category {
		case CategoryWinRate:
			return a.WinRate() > b.WinRate()
		case CategoryBlackjacks:
			return a.Blackjacks > b.Blackjacks
		case CategoryGames:
			return a.GamesPlayed > b.GamesPlayed
		case CategoryStreak:
			return a.LongestWinStreak > b.LongestWinStreak
		default:
			return a.Wins > b.Wins
		}
	})

	if limit > 0 && len(players) > limit {
		players = players[:limit]
	}

	names := make([]string, len(players))
	out := make([]PlayerStats, len(players))
	for i, p := range players {
		names[i] = p.name
		out[i] = *p.stats
	}
	return names, out, nil
}
