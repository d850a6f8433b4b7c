package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Roster     RosterConfig     `yaml:"roster"`
	Database   DatabaseConfig   `yaml:"database"`
	Allocator  AllocatorConfig  `yaml:"allocator"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// AllocatorConfig holds tuning knobs for the allocation engine.
type AllocatorConfig struct {
	// StrictUnresolved makes AllocateBatch fail on unknown student IDs
	// instead of silently dropping them.
	StrictUnresolved bool `yaml:"strict_unresolved"`
	SuggestionLimit  int  `yaml:"suggestion_limit"`
	// RandomSeed seeds the tie-breaking jitter. 0 means time-seeded.
	RandomSeed int64 `yaml:"random_seed"`
}

// RosterConfig holds the facilities-sync configuration.
type RosterConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	HTTPProxy       string        `yaml:"http_proxy"`
	Request         RosterRequest `yaml:"request"`
}

// RosterRequest defines the HTTP request for the facilities feed.
type RosterRequest struct {
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	PageSize int               `yaml:"pageSize"`
	Payload  map[string]any    `yaml:"payload"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableConstraints      bool   `yaml:"enable_constraints"`
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
		return nil, err
	}

	if cfg.Roster.IntervalSeconds <= 0 {
		cfg.Roster.IntervalSeconds = 3600
	}
	cfg.Roster.Interval = time.Duration(cfg.Roster.IntervalSeconds) * time.Second

	if cfg.Roster.Request.PageSize <= 0 {
		cfg.Roster.Request.PageSize = 100
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Allocator.SuggestionLimit <= 0 {
		cfg.Allocator.SuggestionLimit = 5
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
