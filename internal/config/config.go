package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Tree     TreeConfig     `mapstructure:"tree"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	Host         string   `mapstructure:"host"`
	Mode         string   `mapstructure:"mode"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BackendConfig holds the e-commerce REST backend configuration
type BackendConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	Timeout              int    `mapstructure:"timeout"`
	MaxRetries           int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	CircuitBreakerDelay  int    `mapstructure:"circuit_breaker_delay"`
	CanonicalBase        string `mapstructure:"canonical_base"`

	// Authentication: a static token wins over username/password
	Token    string `mapstructure:"token"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	MinIdleTime   int    `mapstructure:"min_idle_time"`
	DraftTTL      int    `mapstructure:"draft_ttl"`
}

// LogConfig controls logrus level and the rotating log file
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// TreeConfig controls how the category forest is built and walked
type TreeConfig struct {
	OrphanPolicy string `mapstructure:"orphan_policy"` // drop | promote | reject
	MaxDepth     int    `mapstructure:"max_depth"`
}

// WorkerConfig controls the submission workers
type WorkerConfig struct {
	Count      int `mapstructure:"count"`
	MaxRetries int `mapstructure:"max_retries"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Tree.OrphanPolicy {
	case "drop", "promote", "reject":
	default:
		return fmt.Errorf("invalid tree.orphan_policy %q: want drop, promote or reject", c.Tree.OrphanPolicy)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q: want debug, release or test", c.Server.Mode)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.allow_origins", []string{"http://localhost:3000"})

	viper.SetDefault("backend.base_url", "http://localhost:4000")
	viper.SetDefault("backend.timeout", 30)
	viper.SetDefault("backend.max_retries", 3)
	viper.SetDefault("backend.max_requests_per_second", 20)
	viper.SetDefault("backend.circuit_breaker_delay", 60)
	viper.SetDefault("backend.canonical_base", "https://example.com/product/")
	viper.SetDefault("backend.token", "")
	viper.SetDefault("backend.username", "")
	viper.SetDefault("backend.password", "")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "shopadmin")
	viper.SetDefault("database.user", "shopadmin_user")
	viper.SetDefault("database.password", "shopadmin_pass")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.database", 0)
	viper.SetDefault("redis.consumer_group", "shopadmin_consumer")
	viper.SetDefault("redis.min_idle_time", 120)
	viper.SetDefault("redis.draft_ttl", 86400)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_age", 30)
	viper.SetDefault("log.max_backups", 5)

	viper.SetDefault("tree.orphan_policy", "drop")
	viper.SetDefault("tree.max_depth", 64)

	viper.SetDefault("worker.count", 4)
	viper.SetDefault("worker.max_retries", 5)
}
