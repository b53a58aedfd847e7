package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version   kong.VersionFlag `short:"v" help:"Show version"`
	Serve     ServeCmd         `cmd:"" help:"Run the chat bot"`
	Dashboard DashboardCmd     `cmd:"" help:"Open the live dashboard for a running bot"`
	Stats     StatsCmd         `cmd:"" help:"Inspect recorded player statistics"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chatjack"),
		kong.Description("Chat-driven multiplayer blackjack for Twitch channels"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
