package config

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateGitHub(cfg.GitHub); err != nil {
		errors = append(errors, err)
	}

	if err := validateTelegram(cfg.Telegram); err != nil {
		errors = append(errors, err)
	}

	if err := validatePoller(cfg.Poller); err != nil {
		errors = append(errors, err)
	}

	if err := validateRedis(cfg.Database.Redis); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}

func validateGitHub(cfg GitHubConfig) error {
	if cfg.Token == "" {
		return &ValidationError{
			Field:   "github.token",
			Message: "github token is required",
		}
	}

	if !strings.HasPrefix(cfg.BaseURL, "http") {
		return &ValidationError{
			Field:   "github.base_url",
			Message: fmt.Sprintf("base url must be an http(s) url, got %q", cfg.BaseURL),
		}
	}

	return nil
}

func validateTelegram(cfg TelegramConfig) error {
	if cfg.BotToken == "" {
		return &ValidationError{
			Field:   "telegram.bot_token",
			Message: "telegram bot token is required",
		}
	}

	if cfg.ChatID == "" {
		return &ValidationError{
			Field:   "telegram.chat_id",
			Message: "telegram chat id is required",
		}
	}

	if !strings.HasPrefix(cfg.BaseURL, "http") {
		return &ValidationError{
			Field:   "telegram.base_url",
			Message: fmt.Sprintf("base url must be an http(s) url, got %q", cfg.BaseURL),
		}
	}

	return nil
}

func validatePoller(cfg PollerConfig) error {
	if len(cfg.Users) == 0 {
		return &ValidationError{
			Field:   "poller.users",
			Message: "at least one github user to poll is required",
		}
	}

	for _, user := range cfg.Users {
		if strings.TrimSpace(user) == "" {
			return &ValidationError{
				Field:   "poller.users",
				Message: "user names must be non-empty",
			}
		}
	}

	if cfg.DaysBack < 0 {
		return &ValidationError{
			Field:   "poller.days_back",
			Message: fmt.Sprintf("days back must be >= 0, got %d", cfg.DaysBack),
		}
	}

	if cfg.MaxEventsPerUser < 1 || cfg.MaxEventsPerUser > 300 {
		return &ValidationError{
			Field:   "poller.max_events_per_user",
			Message: fmt.Sprintf("max events per user must be between 1 and 300, got %d", cfg.MaxEventsPerUser),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	return nil
}
