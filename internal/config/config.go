package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"avigram/internal/constants"
	"avigram/internal/models"
)

var (
	ErrMissingMarketplaceURL = models.ConfigError{Message: "missing marketplace API base URL"}
	ErrMissingChatURL        = models.ConfigError{Message: "missing chat API base URL"}
	ErrMissingDBPath         = models.ConfigError{Message: "missing database path"}
)

func LoadConfig(path string) (*models.Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Marketplace.APIBaseURL == "" {
		return ErrMissingMarketplaceURL
	}
	if c.Chat.APIBaseURL == "" {
		return ErrMissingChatURL
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Chat.EventsEnabled && c.Chat.EventsURL == "" {
		return models.ConfigError{Message: "chat events enabled but events URL is missing"}
	}

	if c.Marketplace.PollIntervalSec <= 0 {
		c.Marketplace.PollIntervalSec = constants.DefaultPollIntervalSec
	}
	if c.Marketplace.TimeoutSec <= 0 {
		c.Marketplace.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if c.Chat.TimeoutSec <= 0 {
		c.Chat.TimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultMaxAttempts
	}
	if c.Retention.Ceiling <= 0 {
		c.Retention.Ceiling = constants.DefaultRetentionCeiling
	}
	if c.Retention.SweepIntervalHours <= 0 {
		c.Retention.SweepIntervalHours = constants.DefaultSweepIntervalHours
	}
	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("MARKETPLACE_API_URL"); url != "" {
		c.Marketplace.APIBaseURL = url
	}
	if url := os.Getenv("MARKETPLACE_TOKEN_URL"); url != "" {
		c.Marketplace.TokenURL = url
	}
	if url := os.Getenv("CHAT_API_URL"); url != "" {
		c.Chat.APIBaseURL = url
	}

	// Secrets are only accepted from the environment
	if token := os.Getenv("CHAT_BOT_TOKEN"); token != "" {
		c.Chat.BotToken = token
	}
	if token := os.Getenv("AVIGRAM_WEBHOOK_TOKEN"); token != "" {
		c.Server.WebhookToken = token
	}

	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if interval := os.Getenv("POLL_INTERVAL_SEC"); interval != "" {
		if sec, err := strconv.Atoi(interval); err == nil && sec > 0 {
			c.Marketplace.PollIntervalSec = sec
		} else {
			fmt.Fprintf(os.Stderr, "WARNING: ignoring invalid POLL_INTERVAL_SEC=%q\n", interval)
		}
	}
}
