// Package config loads and validates LeadForge configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Search     SearchConfig     `mapstructure:"search"`
	Verify     VerifyConfig     `mapstructure:"verify"`
	Generation GenerationConfig `mapstructure:"generation"`
	Enrich     EnrichConfig     `mapstructure:"enrich"`
	Store      StoreConfig      `mapstructure:"store"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int    `mapstructure:"port"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	MaxUploadBytes        int64  `mapstructure:"max_upload_bytes"`
	// SeedFile is an optional canonical CSV loaded into the store at boot.
	SeedFile string `mapstructure:"seed_file"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CORSConfig controls cross-origin access for browser frontends.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// SearchConfig configures the website search provider.
type SearchConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	EngineID          string  `mapstructure:"engine_id"`
	Endpoint          string  `mapstructure:"endpoint"`
	ResultsPerQuery   int     `mapstructure:"results_per_query"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	QuotaPauseSeconds int     `mapstructure:"quota_pause_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// VerifyConfig configures website verification.
type VerifyConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// GenerationConfig configures the email generation provider.
type GenerationConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EnrichConfig governs identification pacing and eventing.
type EnrichConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Topic             string  `mapstructure:"topic"`
}

// StoreConfig selects and configures the business store driver.
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// ArchiveConfig selects where raw uploads are kept.
type ArchiveConfig struct {
	Backend     string             `mapstructure:"backend"`
	Prefix      string             `mapstructure:"prefix"`
	ContentType string             `mapstructure:"content_type"`
	Local       ArchiveLocalConfig `mapstructure:"local"`
	Bucket      string             `mapstructure:"bucket"`
}

// ArchiveLocalConfig configures the local filesystem archive backend.
type ArchiveLocalConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Store driver names.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// Archive backend names.
const (
	ArchiveBackendNone   = "none"
	ArchiveBackendMemory = "memory"
	ArchiveBackendLocal  = "local"
	ArchiveBackendGCS    = "gcs"
)

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider credentials keep their legacy environment names working, and
	// Cloud Run style deployments can set the bare PORT variable.
	bindings := map[string][]string{
		"server.port":        {"LEADFORGE_SERVER_PORT", "PORT"},
		"search.api_key":     {"LEADFORGE_SEARCH_API_KEY", "GOOGLE_API_KEY"},
		"search.engine_id":   {"LEADFORGE_SEARCH_ENGINE_ID", "GOOGLE_SEARCH_ENGINE_ID"},
		"generation.api_key": {"LEADFORGE_GENERATION_API_KEY", "GEMINI_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.max_upload_bytes", 16*1024*1024)
	v.SetDefault("server.seed_file", "")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("logging.development", false)
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.engine_id", "")
	v.SetDefault("search.endpoint", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.results_per_query", 3)
	v.SetDefault("search.timeout_seconds", 10)
	v.SetDefault("search.quota_pause_seconds", 2)
	v.SetDefault("search.requests_per_second", 10)
	v.SetDefault("verify.timeout_seconds", 5)
	// An empty user agent selects the verifier's built-in browser profile.
	v.SetDefault("verify.user_agent", "")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.endpoint", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("generation.model", "gemini-2.0-flash")
	v.SetDefault("generation.timeout_seconds", 30)
	v.SetDefault("enrich.requests_per_second", 1)
	v.SetDefault("enrich.topic", "lead.website.identified")
	v.SetDefault("store.driver", StoreDriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", "businesses")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 0)
	v.SetDefault("store.max_conn_lifetime", "30m")
	v.SetDefault("archive.backend", ArchiveBackendLocal)
	v.SetDefault("archive.prefix", "uploads")
	v.SetDefault("archive.content_type", "text/csv")
	v.SetDefault("archive.local.base_dir", "uploads")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be > 0")
	}
	if c.Search.ResultsPerQuery <= 0 {
		return fmt.Errorf("search.results_per_query must be > 0")
	}
	if c.Search.TimeoutSeconds <= 0 {
		return fmt.Errorf("search.timeout_seconds must be > 0")
	}
	if c.Verify.TimeoutSeconds <= 0 {
		return fmt.Errorf("verify.timeout_seconds must be > 0")
	}
	if c.Generation.TimeoutSeconds <= 0 {
		return fmt.Errorf("generation.timeout_seconds must be > 0")
	}
	if c.Enrich.RequestsPerSecond <= 0 {
		return fmt.Errorf("enrich.requests_per_second must be > 0")
	}
	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.driver is postgres")
		}
	default:
		return fmt.Errorf("store.driver must be one of memory, postgres")
	}
	switch c.Archive.Backend {
	case ArchiveBackendNone, ArchiveBackendMemory:
	case ArchiveBackendLocal:
		if c.Archive.Local.BaseDir == "" {
			return fmt.Errorf("archive.local.base_dir must be set when archive.backend is local")
		}
	case ArchiveBackendGCS:
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket must be set when archive.backend is gcs")
		}
	default:
		return fmt.Errorf("archive.backend must be one of none, memory, local, gcs")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.Topic == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic must be set together")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// RequestTimeout returns the per-request server timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// SearchTimeout returns the provider query timeout.
func (c Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}

// QuotaPause returns the pause applied after a quota-exhausted response.
func (c Config) QuotaPause() time.Duration {
	return time.Duration(c.Search.QuotaPauseSeconds) * time.Second
}

// VerifyTimeout returns the website verification timeout.
func (c Config) VerifyTimeout() time.Duration {
	return time.Duration(c.Verify.TimeoutSeconds) * time.Second
}

// GenerationTimeout returns the email generation timeout.
func (c Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSeconds) * time.Second
}
