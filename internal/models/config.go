package models

// ConfigError indicates an invalid or incomplete configuration.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}

type MarketplaceConfig struct {
	APIBaseURL      string `json:"apiBaseUrl"`
	TokenURL        string `json:"tokenUrl"`
	TimeoutSec      int    `json:"timeoutSec"`
	PollIntervalSec int    `json:"pollIntervalSec"`
}

type ChatConfig struct {
	APIBaseURL    string `json:"apiBaseUrl"`
	BotToken      string `json:"botToken"`
	EventsURL     string `json:"eventsUrl"`
	EventsEnabled bool   `json:"eventsEnabled"`
	TimeoutSec    int    `json:"timeoutSec"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type RetryConfig struct {
	InitialBackoffMs int `json:"initialBackoffMs"`
	MaxBackoffMs     int `json:"maxBackoffMs"`
	MaxAttempts      int `json:"maxAttempts"`
}

type RetentionConfig struct {
	Ceiling            int `json:"ceiling"`
	SweepIntervalHours int `json:"sweepIntervalHours"`
}

type ServerConfig struct {
	Port         int    `json:"port"`
	WebhookToken string `json:"webhookToken"`
}

type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"serviceName"`
	ServiceVersion string  `json:"serviceVersion"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlpEndpoint"`
	SampleRate     float64 `json:"sampleRate"`
	UseStdout      bool    `json:"useStdout"`
}

type Config struct {
	Marketplace MarketplaceConfig `json:"marketplace"`
	Chat        ChatConfig        `json:"chat"`
	Database    DatabaseConfig    `json:"database"`
	Retry       RetryConfig       `json:"retry"`
	Retention   RetentionConfig   `json:"retention"`
	Server      ServerConfig      `json:"server"`
	Tracing     TracingConfig     `json:"tracing"`
	LogLevel    string            `json:"logLevel"`
}
