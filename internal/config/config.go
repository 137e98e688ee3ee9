package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/temcen/bookrec/internal/recommend"
)

const (
	HistoryBackendPostgres = "postgres"
	HistoryBackendNeo4j    = "neo4j"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Neo4j          Neo4jConfig          `mapstructure:"neo4j"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig configures PostgreSQL. An empty URL runs the server on the
// in-memory stores.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Migrate        bool          `mapstructure:"migrate"`
}

// RedisConfig holds one instance for sessions, rate limits and learned
// preferences and one for cached recommendation responses. An empty URL
// disables the instance.
type RedisConfig struct {
	Preferences RedisInstanceConfig `mapstructure:"preferences"`
	Cache       RedisInstanceConfig `mapstructure:"cache"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// KafkaConfig enables the rating event stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topics  struct {
		Ratings string `mapstructure:"ratings"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string            `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration     `mapstructure:"token_ttl"`
	APIKeys   map[string]string `mapstructure:"api_keys"`
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Reader    int           `mapstructure:"reader"`
	Librarian int           `mapstructure:"librarian"`
	Window    time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RecommendationConfig struct {
	MinRating          float64           `mapstructure:"min_rating"`
	LearningRate       float64           `mapstructure:"learning_rate"`
	Weights            recommend.Weights `mapstructure:"weights"`
	HistoryBackend     string            `mapstructure:"history_backend"`
	CacheTTL           time.Duration     `mapstructure:"cache_ttl"`
	PreferenceCacheTTL time.Duration     `mapstructure:"preference_cache_ttl"`
}

// Engine returns the scoring settings in the form the engine takes.
func (c RecommendationConfig) Engine() recommend.Config {
	return recommend.Config{
		MinRating:    c.MinRating,
		LearningRate: c.LearningRate,
		Weights:      c.Weights,
	}
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", "15m")
	v.SetDefault("database.max_lifetime", "1h")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migrate", true)

	// Redis defaults
	v.SetDefault("redis.preferences.url", "")
	v.SetDefault("redis.preferences.max_retries", 3)
	v.SetDefault("redis.preferences.pool_size", 10)
	v.SetDefault("redis.preferences.timeout", "5s")
	v.SetDefault("redis.cache.url", "")
	v.SetDefault("redis.cache.max_retries", 3)
	v.SetDefault("redis.cache.pool_size", 5)
	v.SetDefault("redis.cache.timeout", "10s")

	// Neo4j defaults
	v.SetDefault("neo4j.url", "")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.group_id", "bookrec")
	v.SetDefault("kafka.topics.ratings", "book-ratings")

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.api_keys", map[string]string{
		"demo-reader-key":    "reader",
		"demo-librarian-key": "librarian",
	})
	v.SetDefault("auth.rate_limit.reader", 1000)
	v.SetDefault("auth.rate_limit.librarian", 10000)
	v.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Recommendation defaults
	defaults := recommend.DefaultConfig()
	v.SetDefault("recommendation.min_rating", defaults.MinRating)
	v.SetDefault("recommendation.learning_rate", defaults.LearningRate)
	v.SetDefault("recommendation.weights.genre", defaults.Weights.Genre)
	v.SetDefault("recommendation.weights.quality", defaults.Weights.Quality)
	v.SetDefault("recommendation.weights.popularity", defaults.Weights.Popularity)
	v.SetDefault("recommendation.history_backend", HistoryBackendPostgres)
	v.SetDefault("recommendation.cache_ttl", "15m")
	v.SetDefault("recommendation.preference_cache_ttl", "1h")

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}
