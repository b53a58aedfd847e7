package stats

import (
	"fmt"
	"strings"
)

var categoryTitles = map[Category]string{
	CategoryWins:       "Wins",
	CategoryWinRate:    "Win Rate",
	CategoryBlackjacks: "Blackjacks",
	CategoryGames:      "Games Played",
	CategoryStreak:     "Best Win Streak",
}

// Summary returns the one-line stats reply for !stats.
func (t *Tracker) Summary(channel, player string) string {
	ps, ok := t.Get(channel, player)
	if !ok {
		return fmt.Sprintf("%s: No games played yet! Type !deal to start your first game.", player)
	}

	streak := ""
	if ps.CurrentWinStreak > 0 {
		streak = fmt.Sprintf(" | On a %d win streak!", ps.CurrentWinStreak)
	} else if ps.CurrentLossStreak > 0 {
		streak = fmt.Sprintf(" | On a %d loss streak", ps.CurrentLossStreak)
	}

	return fmt.Sprintf("%s's Stats: %d games | %dW-%dL-%dP (%.1f%% win rate) | %d blackjacks (%.1f%%) | %d busts (%.1f%%) | Avg hand: %.1f | Best streak: %d%s",
		player, ps.GamesPlayed, ps.Wins, ps.Losses, ps.Pushes, ps.WinRate(),
		ps.Blackjacks, ps.BlackjackRate(), ps.Busts, ps.BustRate(),
		ps.AverageHand(), ps.LongestWinStreak, streak)
}

// Detailed returns the longer reply for !mystats.
func (t *Tracker) Detailed(channel, player string) string {
	ps, ok := t.Get(channel, player)
	if !ok {
		return fmt.Sprintf("%s: No games played yet! Type !deal to start your first game.", player)
	}

	parts := []string{
		fmt.Sprintf("%s's Detailed Stats:", player),
		fmt.Sprintf("Games: %d | Record: %dW-%dL-%dP", ps.GamesPlayed, ps.Wins, ps.Losses, ps.Pushes),
		fmt.Sprintf("Win Rate: %.1f%% | Blackjacks: %d (%.1f%%)", ps.WinRate(), ps.Blackjacks, ps.BlackjackRate()),
		fmt.Sprintf("Busts: %d (%.1f%%) | Avg Hand: %.1f", ps.Busts, ps.BustRate(), ps.AverageHand()),
		fmt.Sprintf("Best Hand: %d | Favorite Hand: %s", ps.HighestHand, favoriteOrNA(&ps)),
		fmt.Sprintf("Win Streak: %d (Best: %d)", ps.CurrentWinStreak, ps.LongestWinStreak),
	}
	if !ps.FirstGame.IsZero() {
		parts = append(parts, fmt.Sprintf("Playing since: %s", ps.FirstGame.Format("2006-01-02")))
	}
	return strings.Join(parts, " | ")
}

func favoriteOrNA(ps *PlayerStats) string {
	if fav := ps.FavoriteHand(); fav > 0 {
		return fmt.Sprintf("%d", fav)
	}
	return "N/A"
}

// Leaderboard returns the formatted top-5 reply for !leaderboard.
func (t *Tracker) Leaderboard(channel string, category Category, limit int) string {
	names, players, err := t.Top(channel, category, limit)
	if err != nil {
		return "No players with recorded games yet."
	}

	entries := make([]string, len(names))
	for i, name := range names {
		ps := players[i]
		var value string
		switch category {
		case CategoryWinRate:
			value = fmt.Sprintf("%.1f%%", ps.WinRate())
		case CategoryBlackjacks:
			value = fmt.Sprintf("%d", ps.Blackjacks)
		case CategoryGames:
			value = fmt.Sprintf("%d", ps.GamesPlayed)
		case CategoryStreak:
			value = fmt.Sprintf("%d", ps.LongestWinStreak)
		default:
			value = fmt.Sprintf("%d", ps.Wins)
		}
		entries[i] = fmt.Sprintf("%d. %s: %s", i+1, name, value)
	}

	return fmt.Sprintf("%s Leaderboard: %s", categoryTitles[category], strings.Join(entries, " | "))
}
