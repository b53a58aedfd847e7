// Package config loads bot configuration from an HCL file plus secrets
// from the environment. Credentials never live in the config file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete bot configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
	Ads    AdSettings     `hcl:"ads,block"`
}

// ServerSettings contains bot-level configuration.
type ServerSettings struct {
	Nick      string   `hcl:"nick,optional"`
	Channels  []string `hcl:"channels,optional"`
	AdminAddr string   `hcl:"admin_addr,optional"`
	DataFile  string   `hcl:"data_file,optional"`
	LogLevel  string   `hcl:"log_level,optional"`
}

// GameSettings controls table size and the automation timers.
type GameSettings struct {
	MaxPlayers         int `hcl:"max_players,optional"`
	JoinWindowSeconds  int `hcl:"join_window_seconds,optional"`
	DealerDelaySeconds int `hcl:"dealer_delay_seconds,optional"`
	ResetDelaySeconds  int `hcl:"reset_delay_seconds,optional"`
	AutoPlaySeconds    int `hcl:"auto_play_seconds,optional"`
}

// AdSettings controls periodic promotional messages.
type AdSettings struct {
	Enabled         bool     `hcl:"enabled,optional"`
	IntervalMinutes int      `hcl:"interval_minutes,optional"`
	MinMessages     int      `hcl:"min_messages,optional"`
	Messages        []string `hcl:"messages,optional"`
}

// Secrets holds the credentials read from the environment.
type Secrets struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			AdminAddr: "localhost:8723",
			DataFile:  "chatjack-stats.json",
			LogLevel:  "info",
		},
		Game: GameSettings{
			MaxPlayers:         6,
			JoinWindowSeconds:  30,
			DealerDelaySeconds: 5,
			ResetDelaySeconds:  5,
			AutoPlaySeconds:    60,
		},
		Ads: AdSettings{
			IntervalMinutes: 20,
			MinMessages:     15,
		},
	}
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults; a present file is merged over them.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server.AdminAddr == "" {
		config.Server.AdminAddr = defaults.Server.AdminAddr
	}
	if config.Server.DataFile == "" {
		config.Server.DataFile = defaults.Server.DataFile
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Game.MaxPlayers == 0 {
		config.Game.MaxPlayers = defaults.Game.MaxPlayers
	}
	if config.Game.JoinWindowSeconds == 0 {
		config.Game.JoinWindowSeconds = defaults.Game.JoinWindowSeconds
	}
	if config.Game.DealerDelaySeconds == 0 {
		config.Game.DealerDelaySeconds = defaults.Game.DealerDelaySeconds
	}
	if config.Game.ResetDelaySeconds == 0 {
		config.Game.ResetDelaySeconds = defaults.Game.ResetDelaySeconds
	}
	if config.Game.AutoPlaySeconds == 0 {
		config.Game.AutoPlaySeconds = defaults.Game.AutoPlaySeconds
	}
	if config.Ads.IntervalMinutes == 0 {
		config.Ads.IntervalMinutes = defaults.Ads.IntervalMinutes
	}
	if config.Ads.MinMessages == 0 {
		config.Ads.MinMessages = defaults.Ads.MinMessages
	}

	return &config, nil
}

// LoadSecrets reads credentials from the environment. Call godotenv first
// if a .env file should be honored. CHANNELS, when set, overrides the
// channel list from the config file.
func LoadSecrets(config *Config) (*Secrets, error) {
	secrets := &Secrets{
		ClientID:     os.Getenv("TWITCH_CLIENT_ID"),
		ClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		AccessToken:  os.Getenv("TWITCH_ACCESS_TOKEN"),
		RefreshToken: os.Getenv("TWITCH_REFRESH_TOKEN"),
	}

	if channels := os.Getenv("CHANNELS"); channels != "" {
		config.Server.Channels = nil
		for _, ch := range strings.Split(channels, ",") {
			if ch = strings.TrimSpace(ch); ch != "" {
				config.Server.Channels = append(config.Server.Channels, ch)
			}
		}
	}

	if secrets.AccessToken == "" {
		return nil, fmt.Errorf("TWITCH_ACCESS_TOKEN must be set")
	}
	return secrets, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Nick == "" {
		return fmt.Errorf("server nick must be set")
	}
	if len(c.Server.Channels) == 0 {
		return fmt.Errorf("at least one channel must be configured")
	}
	if c.Game.MaxPlayers < 1 || c.Game.MaxPlayers > 20 {
		return fmt.Errorf("max players must be between 1 and 20")
	}
	if c.Game.JoinWindowSeconds <= 0 {
		return fmt.Errorf("join window must be positive")
	}
	if c.Game.AutoPlaySeconds <= 0 {
		return fmt.Errorf("auto play window must be positive")
	}
	if c.Ads.Enabled && len(c.Ads.Messages) == 0 {
		return fmt.Errorf("ads enabled but no messages configured")
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	return nil
}
