package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			Redis: RedisConfig{Host: "localhost", Port: 6379},
		},
		GitHub: GitHubConfig{
			BaseURL: "https://api.github.com",
			Token:   "ghp_test",
		},
		Telegram: TelegramConfig{
			BaseURL:  "https://api.telegram.org",
			BotToken: "123:abc",
			ChatID:   "-100123",
		},
		Poller: PollerConfig{
			Users:            []string{"alice", "bob"},
			DaysBack:         3,
			MaxEventsPerUser: 30,
		},
	}
}

func TestValidateStaticAcceptsValidConfig(t *testing.T) {
	require.NoError(t, ValidateStatic(validConfig()))
}

func TestValidateStaticRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing github token",
			mutate:  func(c *Config) { c.GitHub.Token = "" },
			wantMsg: "github.token",
		},
		{
			name:    "bad github base url",
			mutate:  func(c *Config) { c.GitHub.BaseURL = "api.github.com" },
			wantMsg: "github.base_url",
		},
		{
			name:    "missing bot token",
			mutate:  func(c *Config) { c.Telegram.BotToken = "" },
			wantMsg: "telegram.bot_token",
		},
		{
			name:    "missing chat id",
			mutate:  func(c *Config) { c.Telegram.ChatID = "" },
			wantMsg: "telegram.chat_id",
		},
		{
			name:    "no users",
			mutate:  func(c *Config) { c.Poller.Users = nil },
			wantMsg: "poller.users",
		},
		{
			name:    "blank user",
			mutate:  func(c *Config) { c.Poller.Users = []string{"alice", "  "} },
			wantMsg: "poller.users",
		},
		{
			name:    "negative days back",
			mutate:  func(c *Config) { c.Poller.DaysBack = -1 },
			wantMsg: "poller.days_back",
		},
		{
			name:    "max events too large",
			mutate:  func(c *Config) { c.Poller.MaxEventsPerUser = 301 },
			wantMsg: "poller.max_events_per_user",
		},
		{
			name:    "zero max events",
			mutate:  func(c *Config) { c.Poller.MaxEventsPerUser = 0 },
			wantMsg: "poller.max_events_per_user",
		},
		{
			name:    "bad server port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantMsg: "server.port",
		},
		{
			name:    "missing redis host",
			mutate:  func(c *Config) { c.Database.Redis.Host = "" },
			wantMsg: "database.redis.host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateStaticAllowsZeroDaysBack(t *testing.T) {
	cfg := validConfig()
	cfg.Poller.DaysBack = 0
	require.NoError(t, ValidateStatic(cfg))
}
