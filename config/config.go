package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Database      DatabaseConfig     `yaml:"database"`
	Push          PushConfig         `yaml:"push"`
	Queue         QueueConfig        `yaml:"queue"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
// Driver is "postgres" in production; tests run on in-memory sqlite.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig selects and configures the push channel.
type PushConfig struct {
	// Channel is "fcm" or "webpush".
	Channel string `yaml:"channel"`

	// FCM service account credentials file.
	FCMCredentialsFile string `yaml:"fcm_credentials_file"`

	// VAPID keys for the web push channel.
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	VAPIDSubject    string `yaml:"vapid_subject"`
	TTL             int    `yaml:"ttl"`

	// SendsPerSecond caps outgoing channel calls across all delivery workers.
	SendsPerSecond float64 `yaml:"sends_per_second"`
}

// QueueConfig tunes the durable job queue workers.
type QueueConfig struct {
	Workers             int `yaml:"workers"`
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	ClaimBatchSize      int `yaml:"claim_batch_size"`
	MaxAttempts         int `yaml:"max_attempts"`
	BackoffBaseSeconds  int `yaml:"backoff_base_seconds"`

	// LeaseSeconds bounds how long a claimed job may sit unsettled
	// before another claimer may take it over.
	LeaseSeconds int `yaml:"lease_seconds"`
}

// NotificationConfig holds the seed values for the notification settings
// row. The database row is authoritative once created; these apply on
// first run only.
type NotificationConfig struct {
	InactivityCron       string `yaml:"inactivity_cron"`
	MissingMoodCron      string `yaml:"missing_mood_cron"`
	PendingSurveyCron    string `yaml:"pending_survey_cron"`
	UnreadArticleCron    string `yaml:"unread_article_cron"`
	GlobalInactivityCron string `yaml:"global_inactivity_cron"`

	InactivityThresholdDays int `yaml:"inactivity_threshold_days"`
	MoodReminderHour        int `yaml:"mood_reminder_hour"`
	SurveyReminderDays      int `yaml:"survey_reminder_days"`
	ArticleReminderDays     int `yaml:"article_reminder_days"`
	ResendCooldownHours     int `yaml:"resend_cooldown_hours"`

	PageSize           int `yaml:"page_size"`
	PageDelayMs        int `yaml:"page_delay_ms"`
	BroadcastBatchSize int `yaml:"broadcast_batch_size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields. Exported so tests can build
// a usable Config without a file on disk.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Push.Channel == "" {
		cfg.Push.Channel = "fcm"
	}
	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Push.SendsPerSecond <= 0 {
		cfg.Push.SendsPerSecond = 100
	}

	if cfg.Queue.Workers <= 0 {
		cfg.Queue.Workers = 4
	}
	if cfg.Queue.PollIntervalSeconds <= 0 {
		cfg.Queue.PollIntervalSeconds = 1
	}
	if cfg.Queue.ClaimBatchSize <= 0 {
		cfg.Queue.ClaimBatchSize = 50
	}
	if cfg.Queue.MaxAttempts <= 0 {
		cfg.Queue.MaxAttempts = 5
	}
	if cfg.Queue.BackoffBaseSeconds <= 0 {
		cfg.Queue.BackoffBaseSeconds = 30
	}
	if cfg.Queue.LeaseSeconds <= 0 {
		cfg.Queue.LeaseSeconds = 300
	}

	n := &cfg.Notifications
	if n.InactivityCron == "" {
		n.InactivityCron = "0 10 * * *"
	}
	if n.MissingMoodCron == "" {
		n.MissingMoodCron = "0 * * * *"
	}
	if n.PendingSurveyCron == "" {
		n.PendingSurveyCron = "0 11 * * *"
	}
	if n.UnreadArticleCron == "" {
		n.UnreadArticleCron = "0 12 * * *"
	}
	if n.GlobalInactivityCron == "" {
		n.GlobalInactivityCron = "0 9 * * 1"
	}
	if n.InactivityThresholdDays <= 0 {
		n.InactivityThresholdDays = 3
	}
	if n.MoodReminderHour <= 0 {
		n.MoodReminderHour = 18
	}
	if n.SurveyReminderDays <= 0 {
		n.SurveyReminderDays = 7
	}
	if n.ArticleReminderDays <= 0 {
		n.ArticleReminderDays = 7
	}
	if n.ResendCooldownHours <= 0 {
		n.ResendCooldownHours = 24
	}
	if n.PageSize <= 0 {
		n.PageSize = 500
	}
	if n.BroadcastBatchSize <= 0 {
		n.BroadcastBatchSize = 500
	}
}
