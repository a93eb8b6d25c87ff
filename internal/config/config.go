package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Redis       RedisConfig       `yaml:"redis"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Sync        SyncConfig        `yaml:"sync"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Profiles    ProfilesConfig    `yaml:"profiles"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	CORS        CORSConfig        `yaml:"cors"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" env:"ARCADE_SERVER_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"ARCADE_SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"ARCADE_SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"ARCADE_SERVER_IDLE_TIMEOUT"`
}

// StorageConfig selects where players and the score ledger live
type StorageConfig struct {
	Driver string `yaml:"driver" env:"ARCADE_STORAGE_DRIVER"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled       bool          `yaml:"enabled" env:"ARCADE_REDIS_ENABLED"`
	Addr          string        `yaml:"addr" env:"ARCADE_REDIS_ADDR"`
	Password      string        `yaml:"password" env:"ARCADE_REDIS_PASSWORD"`
	DB            int           `yaml:"db" env:"ARCADE_REDIS_DB"`
	PoolSize      int           `yaml:"pool_size"`
	MinIdleConns  int           `yaml:"min_idle_conns"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	PlayerInfoTTL time.Duration `yaml:"player_info_ttl"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host" env:"ARCADE_POSTGRES_HOST"`
	Port            int           `yaml:"port" env:"ARCADE_POSTGRES_PORT"`
	User            string        `yaml:"user" env:"ARCADE_POSTGRES_USER"`
	Password        string        `yaml:"password" env:"ARCADE_POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" env:"ARCADE_POSTGRES_DATABASE"`
	SSLMode         string        `yaml:"ssl_mode" env:"ARCADE_POSTGRES_SSL_MODE"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" env:"ARCADE_KAFKA_BROKERS"`
	Topic        string        `yaml:"topic" env:"ARCADE_KAFKA_TOPIC"`
	GroupID      string        `yaml:"group_id" env:"ARCADE_KAFKA_GROUP_ID"`
	Enabled      bool          `yaml:"enabled" env:"ARCADE_KAFKA_ENABLED"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// SyncConfig holds ranking rebuild worker configuration
type SyncConfig struct {
	Interval time.Duration `yaml:"interval" env:"ARCADE_SYNC_INTERVAL"`
	Enabled  bool          `yaml:"enabled" env:"ARCADE_SYNC_ENABLED"`
}

// LeaderboardConfig holds leaderboard-specific configuration
type LeaderboardConfig struct {
	DefaultLimit   int `yaml:"default_limit"`
	MaxLimit       int `yaml:"max_limit"`
	BroadcastLimit int `yaml:"broadcast_limit"`
}

// ProfilesConfig holds progression rules for the known games
type ProfilesConfig struct {
	MaxLevel             int    `yaml:"max_level"`
	PlatformStarterCoins int64  `yaml:"platform_starter_coins"`
	PlatformStarterSkin  string `yaml:"platform_starter_skin"`
	ShooterStarterCoins  int64  `yaml:"shooter_starter_coins"`
	ShooterStarterShip   string `yaml:"shooter_starter_ship"`
	WriteRetries         int    `yaml:"write_retries"`
}

// RateLimitConfig throttles score submissions per client address
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" env:"ARCADE_RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CORSConfig lists the front-ends allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"ARCADE_CORS_ALLOWED_ORIGINS"`
}

// Load reads configuration from a YAML file and overlays ARCADE_* environment variables
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 50
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.PlayerInfoTTL == 0 {
		c.Redis.PlayerInfoTTL = 24 * time.Hour
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.Database == "" {
		c.Postgres.Database = "arcade"
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 20
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 2
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "arcade-sessions"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "arcade-profiles"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 50
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 1 * time.Second
	}

	if c.Sync.Interval == 0 {
		c.Sync.Interval = 15 * time.Minute
	}

	// Leaderboard defaults
	if c.Leaderboard.DefaultLimit == 0 {
		c.Leaderboard.DefaultLimit = 10
	}
	if c.Leaderboard.MaxLimit == 0 {
		c.Leaderboard.MaxLimit = 100
	}
	if c.Leaderboard.BroadcastLimit == 0 {
		c.Leaderboard.BroadcastLimit = 10
	}

	// Profile defaults
	if c.Profiles.MaxLevel == 0 {
		c.Profiles.MaxLevel = 10
	}
	if c.Profiles.PlatformStarterCoins == 0 {
		c.Profiles.PlatformStarterCoins = 100
	}
	if c.Profiles.PlatformStarterSkin == "" {
		c.Profiles.PlatformStarterSkin = "classic"
	}
	if c.Profiles.ShooterStarterCoins == 0 {
		c.Profiles.ShooterStarterCoins = 1000
	}
	if c.Profiles.ShooterStarterShip == "" {
		c.Profiles.ShooterStarterShip = "scout"
	}
	if c.Profiles.WriteRetries == 0 {
		c.Profiles.WriteRetries = 3
	}

	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5000",
			"http://localhost:5173",
		}
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Sync.Enabled = true
	cfg.Redis.Enabled = true
	cfg.RateLimit.Enabled = true
	return cfg
}
