package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func Load(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func bindEnvVariables() {
	viper.BindEnv("github.token", "GITHUB_TOKEN")
	viper.BindEnv("github.base_url", "GITHUB_BASE_URL")

	viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")
	viper.BindEnv("telegram.base_url", "TELEGRAM_PROXY_URL")

	viper.BindEnv("poller.days_back", "DAYS_BACK")
	viper.BindEnv("poller.max_events_per_user", "MAX_EVENTS_PER_USER")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout_seconds", "SERVER_READ_TIMEOUT_SECONDS")
	viper.BindEnv("server.write_timeout_seconds", "SERVER_WRITE_TIMEOUT_SECONDS")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
}

func setDefaults() {
	viper.SetDefault("github.base_url", "https://api.github.com")
	viper.SetDefault("telegram.base_url", "https://api.telegram.org")
	viper.SetDefault("poller.days_back", 3)
	viper.SetDefault("poller.max_events_per_user", 30)
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("logging.level", "info")
}

func applyEnvOverrides(cfg *Config) error {
	// GITHUB_USERS is comma-separated, which viper's Unmarshal does not split.
	if usersEnv := viper.GetString("GITHUB_USERS"); usersEnv != "" {
		users := strings.Split(usersEnv, ",")
		for i := range users {
			users[i] = strings.TrimSpace(users[i])
		}
		if len(users) > 0 && users[0] != "" {
			cfg.Poller.Users = users
		}
	}

	return nil
}
