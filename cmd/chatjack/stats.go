package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/chatjack/chatjack/internal/stats"
)

// StatsCmd reads the stats data file directly, no running bot required.
type StatsCmd struct {
	DataFile string `kong:"default='chatjack-stats.json',help='Path to the stats data file'"`
	Channel  string `kong:"help='Channel to inspect, e.g. #mychannel'"`
	Player   string `kong:"help='Show one player instead of the leaderboard'"`
	Category string `kong:"default='wins',help='Leaderboard category: wins, winrate, blackjacks, games, streak'"`
	Limit    int    `kong:"default='10',help='Leaderboard size'"`
}

func (c *StatsCmd) Run() error {
	tracker := stats.NewTracker(c.DataFile, log.New(io.Discard), quartz.NewReal())

	if c.Channel == "" {
		channels, players, games := tracker.Totals()
		fmt.Printf("channels: %d, players: %d, games recorded: %d\n", channels, players, games)
		return nil
	}

	if c.Player != "" {
		fmt.Println(tracker.Detailed(c.Channel, c.Player))
		return nil
	}

	category, ok := stats.ParseCategory(c.Category)
	if !ok {
		return fmt.Errorf("unknown category %q", c.Category)
	}
	fmt.Println(tracker.Leaderboard(c.Channel, category, c.Limit))
	return nil
}
