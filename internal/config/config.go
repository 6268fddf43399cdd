// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/rkhanna/amulwatch/pkg/types"
)

// ErrNoItems is returned when the configuration tracks no items; there
// is nothing useful for a run to do.
var ErrNoItems = errors.New("items: at least one tracked alias is required")

// Config is the top-level application configuration.
type Config struct {
	Site          SiteConfig          `yaml:"site"`
	Items         []string            `yaml:"items"`
	Region        RegionConfig        `yaml:"region"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Retry         RetryConfig         `yaml:"retry"`
	State         StateConfig         `yaml:"state"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// SiteConfig defines the shop.amul.com endpoints and client behavior.
type SiteConfig struct {
	BaseURL     string        `yaml:"base_url"`
	BrowsePath  string        `yaml:"browse_path"`
	SessionPath string        `yaml:"session_path"`
	PrefsPath   string        `yaml:"prefs_path"`
	CatalogPath string        `yaml:"catalog_path"`
	StoreID     string        `yaml:"store_id"`
	Timeout     time.Duration `yaml:"timeout"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines outbound request rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// RegionConfig defines the region resolution chain inputs.
type RegionConfig struct {
	Pincode string `yaml:"pincode"`

	// Override short-circuits resolution with a known substore code.
	Override string `yaml:"override"`

	// Default is the heuristic fallback when no rule matches.
	Default string `yaml:"default"`

	Rules RegionRules `yaml:"rules"`
}

// RegionRules holds the static pincode-to-substore mapping rules.
// Prefix and range rules are ordered; earlier entries win ties.
type RegionRules struct {
	Exact    map[string]string `yaml:"exact"`
	Prefixes []PrefixRule      `yaml:"prefixes"`
	Ranges   []RangeRule       `yaml:"ranges"`
}

// PrefixRule maps a pincode prefix to a substore code.
type PrefixRule struct {
	Prefix   string `yaml:"prefix"`
	Substore string `yaml:"substore"`
}

// RangeRule maps an inclusive lexicographic pincode range to a substore code.
type RangeRule struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Substore string `yaml:"substore"`
}

// AlertsConfig defines alert behavior.
type AlertsConfig struct {
	Mode domain.AlertMode `yaml:"mode"` // full-diff or availability-only

	// ReAlertsEnabled re-fires availability alerts for items that stay
	// available past the cooldown window.
	ReAlertsEnabled  bool          `yaml:"re_alerts_enabled"`  // default: false
	ReAlertsCooldown time.Duration `yaml:"re_alerts_cooldown"` // default: 12h
}

// RetryConfig defines the shared retry policy for bootstrap and fetch.
type RetryConfig struct {
	MaxAttempts  uint          `yaml:"max_attempts"`
	BaseInterval time.Duration `yaml:"base_interval"`
	MaxInterval  time.Duration `yaml:"max_interval"`
}

// StateConfig defines state file persistence settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// NotificationsConfig defines notification targets. Each channel is
// independently optional; an unconfigured channel is silently skipped.
type NotificationsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

// TelegramConfig defines Telegram bot API settings.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// EmailConfig defines SMTP delivery settings.
type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// MetricsConfig defines batch-job metrics export settings.
type MetricsConfig struct {
	// TextfilePath, when set, receives a Prometheus textfile-collector
	// dump at the end of each run.
	TextfilePath string `yaml:"textfile_path"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	File   string `yaml:"file"`   // optional rotating log file
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applySiteDefaults(&cfg.Site)
	applyAlertsDefaults(&cfg.Alerts)
	applyRetryDefaults(&cfg.Retry)
	applyStateDefaults(&cfg.State)
	applyLoggingDefaults(&cfg.Logging)
	if cfg.Notifications.Email.Port == 0 {
		cfg.Notifications.Email.Port = 587
	}
}

func applySiteDefaults(s *SiteConfig) {
	if s.BaseURL == "" {
		s.BaseURL = "https://shop.amul.com"
	}
	if s.BrowsePath == "" {
		s.BrowsePath = "/en/browse/protein"
	}
	if s.SessionPath == "" {
		s.SessionPath = "/user/session"
	}
	if s.PrefsPath == "" {
		s.PrefsPath = "/entity/ms.settings/_/setPreferences"
	}
	if s.CatalogPath == "" {
		s.CatalogPath = "/api/1/entity/ms.products"
	}
	if s.StoreID == "" {
		s.StoreID = "62fa94df8c13af2e242eba16"
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	applyRateLimitDefaults(&s.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 1.0
	}
	if r.Burst == 0 {
		r.Burst = 3
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 2000
	}
}

func applyAlertsDefaults(a *AlertsConfig) {
	if a.Mode == "" {
		a.Mode = domain.ModeAvailabilityOnly
	}
	if a.ReAlertsCooldown == 0 {
		a.ReAlertsCooldown = 12 * time.Hour
	}
}

func applyRetryDefaults(r *RetryConfig) {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 4
	}
	if r.BaseInterval == 0 {
		r.BaseInterval = 2 * time.Second
	}
	if r.MaxInterval == 0 {
		r.MaxInterval = 30 * time.Second
	}
}

func applyStateDefaults(s *StateConfig) {
	if s.Path == "" {
		s.Path = "state.json"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if len(cfg.Items) == 0 {
		errs = append(errs, ErrNoItems)
	}
	for i, alias := range cfg.Items {
		if domain.NormalizeAlias(alias) == "" {
			errs = append(errs, fmt.Errorf("items[%d]: alias is blank", i))
		}
	}

	if !cfg.Alerts.Mode.Valid() {
		errs = append(errs, fmt.Errorf(
			"alerts.mode must be one of: %s, %s (got %q)",
			domain.ModeFullDiff, domain.ModeAvailabilityOnly, cfg.Alerts.Mode,
		))
	}

	if cfg.Region.Pincode == "" && cfg.Region.Override == "" {
		errs = append(errs, fmt.Errorf("region: pincode or override is required"))
	}

	for i, r := range cfg.Region.Rules.Ranges {
		if r.From > r.To {
			errs = append(errs, fmt.Errorf("region.rules.ranges[%d]: from %q exceeds to %q", i, r.From, r.To))
		}
	}

	if t := cfg.Notifications.Telegram; t.Enabled {
		if t.BotToken == "" || t.ChatID == "" {
			errs = append(errs, fmt.Errorf("notifications.telegram: bot_token and chat_id are required when enabled"))
		}
	}
	if e := cfg.Notifications.Email; e.Enabled {
		if e.Host == "" || e.From == "" || e.To == "" {
			errs = append(errs, fmt.Errorf("notifications.email: host, from and to are required when enabled"))
		}
	}

	return errors.Join(errs...)
}
