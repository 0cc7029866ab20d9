// Package config provides configuration management for the dataset discovery service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Cache backend constants.
const (
	// CacheBackendMemory keeps discovery results in process memory.
	CacheBackendMemory = "memory"
	// CacheBackendPostgres persists discovery results in PostgreSQL.
	CacheBackendPostgres = "postgres"
)

// Config holds all configuration for the dataset discovery service.
type Config struct {
	// Server contains the operational HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Kafka contains event publishing and cache invalidation settings.
	Kafka KafkaConfig `mapstructure:"kafka"`
	// Sources contains per-provider API configurations.
	Sources SourcesConfig `mapstructure:"sources"`
	// Discovery contains pipeline-level settings.
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	// Dedup contains duplicate-detection thresholds.
	Dedup DedupConfig `mapstructure:"dedup"`
	// Cache contains discovery result cache settings.
	Cache CacheConfig `mapstructure:"cache"`
}

// ServerConfig holds operational HTTP server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// ReadTimeout is the maximum duration for reading the request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 20).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 5).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
	// StatementCacheCapacity is the size of the prepared statement cache.
	StatementCacheCapacity int `mapstructure:"statement_cache_capacity"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// KafkaConfig holds Kafka settings for discovery events and cache
// invalidation.
type KafkaConfig struct {
	// Enabled controls whether Kafka integration is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// EventsTopic is the topic discovery completion events are published to.
	EventsTopic string `mapstructure:"events_topic"`
	// RequestsTopic is the topic carrying discovery requests consumed by the
	// daemon. Empty disables the request listener.
	RequestsTopic string `mapstructure:"requests_topic"`
	// InvalidationTopic is the topic carrying dataset registration events that
	// invalidate cached discovery results.
	InvalidationTopic string `mapstructure:"invalidation_topic"`
	// ConsumerGroup is the consumer group ID of the invalidation listener.
	ConsumerGroup string `mapstructure:"consumer_group"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// SourcesConfig holds configuration for all publication source APIs.
type SourcesConfig struct {
	// OpenAlex contains OpenAlex API settings.
	OpenAlex SourceConfig `mapstructure:"openalex"`
	// SemanticScholar contains Semantic Scholar API settings.
	SemanticScholar SourceConfig `mapstructure:"semantic_scholar"`
	// EuropePMC contains Europe PMC API settings.
	EuropePMC SourceConfig `mapstructure:"europepmc"`
	// PubMed contains PubMed E-utilities settings.
	PubMed SourceConfig `mapstructure:"pubmed"`
	// OpenCitations contains OpenCitations COCI API settings.
	OpenCitations SourceConfig `mapstructure:"opencitations"`
}

// SourceConfig holds configuration for a single publication source API.
type SourceConfig struct {
	// Enabled controls whether this source is used.
	Enabled bool `mapstructure:"enabled"`
	// APIKey is the API key or access token (loaded from environment
	// variables, e.g. DISCOVERY_SOURCES_SEMANTIC_SCHOLAR_API_KEY).
	APIKey string `mapstructure:"-"`
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Email is the contact email for providers with a polite pool.
	Email string `mapstructure:"email"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxResults is the maximum results per query.
	MaxResults int `mapstructure:"max_results"`
}

// DiscoveryConfig holds pipeline-level settings.
type DiscoveryConfig struct {
	// DefaultMaxResults caps returned publications when the caller does not.
	// Zero means no cap.
	DefaultMaxResults int `mapstructure:"default_max_results"`
}

// DedupConfig holds duplicate-detection thresholds.
type DedupConfig struct {
	// TitleThreshold is the minimum normalized title similarity (0.0-1.0).
	TitleThreshold float64 `mapstructure:"title_threshold"`
	// AuthorThreshold is the minimum author overlap ratio (0.0-1.0).
	AuthorThreshold float64 `mapstructure:"author_threshold"`
	// YearTolerance is the maximum year difference for a fuzzy match.
	YearTolerance int `mapstructure:"year_tolerance"`
}

// CacheConfig holds discovery result cache settings.
type CacheConfig struct {
	// Backend selects the cache implementation (postgres, memory).
	Backend string `mapstructure:"backend"`
	// TTL is the default lifetime of a cached discovery result.
	TTL time.Duration `mapstructure:"ttl"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}
	if c.StatementCacheCapacity > 0 {
		params.Set("statement_cache_capacity", fmt.Sprintf("%d", c.StatementCacheCapacity))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DISCOVERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dataset-discovery-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Sources.OpenAlex.APIKey = os.Getenv("DISCOVERY_SOURCES_OPENALEX_API_KEY")
	cfg.Sources.SemanticScholar.APIKey = os.Getenv("DISCOVERY_SOURCES_SEMANTIC_SCHOLAR_API_KEY")
	cfg.Sources.EuropePMC.APIKey = os.Getenv("DISCOVERY_SOURCES_EUROPEPMC_API_KEY")
	cfg.Sources.PubMed.APIKey = os.Getenv("DISCOVERY_SOURCES_PUBMED_API_KEY")
	cfg.Sources.OpenCitations.APIKey = os.Getenv("DISCOVERY_SOURCES_OPENCITATIONS_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "discovery")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "dataset_discovery_service")
	// Default to "require" for production security. Use DISCOVERY_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)
	v.SetDefault("database.statement_cache_capacity", 512)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.events_topic", "events.discovery.completed")
	v.SetDefault("kafka.requests_topic", "events.discovery.requested")
	v.SetDefault("kafka.invalidation_topic", "events.dataset.source_data_registered")
	v.SetDefault("kafka.consumer_group", "dataset-discovery-service")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")

	// Sources defaults - OpenAlex
	// API keys are loaded exclusively from environment variables (see loadSecrets).
	v.SetDefault("sources.openalex.enabled", true)
	v.SetDefault("sources.openalex.base_url", "https://api.openalex.org")
	v.SetDefault("sources.openalex.email", "")
	v.SetDefault("sources.openalex.timeout", "20s")
	v.SetDefault("sources.openalex.rate_limit", 10.0)
	v.SetDefault("sources.openalex.max_results", 200)

	// Sources defaults - Semantic Scholar
	v.SetDefault("sources.semantic_scholar.enabled", true)
	v.SetDefault("sources.semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("sources.semantic_scholar.timeout", "20s")
	v.SetDefault("sources.semantic_scholar.rate_limit", 1.0) // 1 req/sec without an API key
	v.SetDefault("sources.semantic_scholar.max_results", 100)

	// Sources defaults - Europe PMC
	v.SetDefault("sources.europepmc.enabled", true)
	v.SetDefault("sources.europepmc.base_url", "https://www.ebi.ac.uk/europepmc/webservices/rest")
	v.SetDefault("sources.europepmc.email", "")
	v.SetDefault("sources.europepmc.timeout", "20s")
	v.SetDefault("sources.europepmc.rate_limit", 10.0)
	v.SetDefault("sources.europepmc.max_results", 100)

	// Sources defaults - PubMed
	v.SetDefault("sources.pubmed.enabled", true)
	v.SetDefault("sources.pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("sources.pubmed.timeout", "20s")
	v.SetDefault("sources.pubmed.rate_limit", 3.0) // NCBI recommends max 3 req/sec without API key
	v.SetDefault("sources.pubmed.max_results", 100)

	// Sources defaults - OpenCitations
	v.SetDefault("sources.opencitations.enabled", true)
	v.SetDefault("sources.opencitations.base_url", "https://opencitations.net/index/coci/api/v1")
	v.SetDefault("sources.opencitations.timeout", "20s")
	v.SetDefault("sources.opencitations.rate_limit", 5.0)
	v.SetDefault("sources.opencitations.max_results", 100)

	// Discovery pipeline defaults
	v.SetDefault("discovery.default_max_results", 0)

	// Dedup defaults
	v.SetDefault("dedup.title_threshold", 0.85)
	v.SetDefault("dedup.author_threshold", 0.70)
	v.SetDefault("dedup.year_tolerance", 1)

	// Cache defaults
	v.SetDefault("cache.backend", CacheBackendPostgres)
	v.SetDefault("cache.ttl", "168h")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	// The database is only required when it backs the cache.
	if c.Cache.Backend == CacheBackendPostgres {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.MaxConns < c.Database.MinConns {
			return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
		}
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendPostgres:
	default:
		return fmt.Errorf("invalid cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if c.Dedup.TitleThreshold < 0 || c.Dedup.TitleThreshold > 1 {
		return fmt.Errorf("dedup title threshold must be between 0 and 1")
	}
	if c.Dedup.AuthorThreshold < 0 || c.Dedup.AuthorThreshold > 1 {
		return fmt.Errorf("dedup author threshold must be between 0 and 1")
	}
	if c.Dedup.YearTolerance < 0 {
		return fmt.Errorf("dedup year tolerance must not be negative")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.EventsTopic == "" {
			return fmt.Errorf("kafka events topic is required when kafka is enabled")
		}
	}

	for name, source := range map[string]SourceConfig{
		"openalex":         c.Sources.OpenAlex,
		"semantic_scholar": c.Sources.SemanticScholar,
		"europepmc":        c.Sources.EuropePMC,
		"pubmed":           c.Sources.PubMed,
		"opencitations":    c.Sources.OpenCitations,
	} {
		if !source.Enabled {
			continue
		}
		if source.BaseURL == "" {
			return fmt.Errorf("source %s: base URL is required", name)
		}
		if source.RateLimit <= 0 {
			return fmt.Errorf("source %s: rate limit must be positive", name)
		}
		if source.Timeout <= 0 {
			return fmt.Errorf("source %s: timeout must be positive", name)
		}
	}

	return nil
}
