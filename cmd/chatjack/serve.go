package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/chatjack/chatjack/cmd/chatjack/shared"
	"github.com/chatjack/chatjack/internal/admin"
	"github.com/chatjack/chatjack/internal/auth"
	"github.com/chatjack/chatjack/internal/bot"
	"github.com/chatjack/chatjack/internal/config"
	"github.com/chatjack/chatjack/internal/stats"
	"github.com/chatjack/chatjack/internal/twitch"
)

// ServeCmd runs the bot against live Twitch chat.
type ServeCmd struct {
	Config  string `kong:"default='chatjack.hcl',help='Path to HCL config file'"`
	EnvFile string `kong:"default='.env',help='Path to .env file with credentials'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	// Missing .env is fine, credentials may come from the environment.
	_ = godotenv.Load(c.EnvFile)

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	secrets, err := config.LoadSecrets(cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.Server.LogLevel
	if c.Debug {
		level = "debug"
	}
	logger := shared.SetupLogger(level)

	ctx := shared.SetupSignalHandler(logger)

	token := secrets.AccessToken
	authClient := auth.NewClient(secrets.ClientID, secrets.ClientSecret)
	identity, err := authClient.Validate(ctx, token)
	if errors.Is(err, auth.ErrInvalidToken) && secrets.RefreshToken != "" {
		logger.Warn("Access token rejected, refreshing")
		refreshed, refreshErr := authClient.Refresh(ctx, secrets.RefreshToken)
		if refreshErr != nil {
			return fmt.Errorf("token refresh failed: %w", refreshErr)
		}
		token = refreshed.AccessToken
		identity, err = authClient.Validate(ctx, token)
	}
	if err != nil {
		return fmt.Errorf("token validation failed: %w", err)
	}
	logger.Info("Authenticated with Twitch",
		"login", identity.Login,
		"expires_in", (time.Duration(identity.ExpiresIn) * time.Second).String())

	clock := quartz.NewReal()
	tracker := stats.NewTracker(cfg.Server.DataFile, logger, clock)

	chatClient := twitch.NewClient(cfg.Server.Nick, token, cfg.Server.Channels, logger)

	opts := bot.Options{
		MaxPlayers:    cfg.Game.MaxPlayers,
		JoinWindow:    time.Duration(cfg.Game.JoinWindowSeconds) * time.Second,
		DealerDelay:   time.Duration(cfg.Game.DealerDelaySeconds) * time.Second,
		ResetDelay:    time.Duration(cfg.Game.ResetDelaySeconds) * time.Second,
		AutoPlay:      time.Duration(cfg.Game.AutoPlaySeconds) * time.Second,
		AdInterval:    time.Duration(cfg.Ads.IntervalMinutes) * time.Minute,
		AdMinMessages: cfg.Ads.MinMessages,
	}
	if cfg.Ads.Enabled {
		opts.AdMessages = cfg.Ads.Messages
	}

	b := bot.New(chatClient, bot.NewRegistry(opts.MaxPlayers, nil), tracker, logger, clock, opts,
		bot.LogSends(logger))
	chatClient.OnMessage(b.HandleMessage)

	adminServer := admin.NewServer(cfg.Server.AdminAddr, b, tracker, logger)

	logger.Info("Starting chatjack",
		"nick", cfg.Server.Nick,
		"channels", len(cfg.Server.Channels),
		"admin_addr", cfg.Server.AdminAddr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return chatClient.Run(ctx) })
	g.Go(func() error { return adminServer.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
