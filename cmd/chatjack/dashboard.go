package main

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/chatjack/chatjack/cmd/chatjack/shared"
	"github.com/chatjack/chatjack/internal/tui"
)

// DashboardCmd opens the terminal dashboard against a running bot's admin
// API.
type DashboardCmd struct {
	Addr  string `kong:"default='localhost:8723',help='Admin API address of the running bot'"`
	Debug bool   `kong:"help='Enable debug logging'"`
}

func (c *DashboardCmd) Run() error {
	// Log lines would fight the TUI for the terminal, so logging is off
	// unless explicitly asked for.
	logger := log.New(io.Discard)
	if c.Debug {
		logger = shared.SetupLogger("debug")
	}
	return tui.Run(c.Addr, logger)
}
