// Package config loads service settings from flags, CARCLUB_* environment
// variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const EnvPrefix = "CARCLUB"

// Config holds all application configuration
type Config struct {
	Port         int
	FleetSize    int
	LogLevel     string
	LogFormat    string
	SignInDelay  time.Duration
	BookingDelay time.Duration
	JWTSecret    string
	JWTExpiry    time.Duration
	RateLimit    int
	RateWindow   time.Duration
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that sets those headers.
	TrustProxy   bool
	CacheTTL     time.Duration
	SessionIdle  time.Duration
	Mongo        MongoConfig
	Redis        RedisConfig
	MQTT         MQTTConfig
}

// MongoConfig holds MongoDB configuration. An empty URI disables it.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis configuration. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig holds broker configuration. An empty Broker disables it.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Prefix   string
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("fleet.size", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("signin.delay", time.Second)
	v.SetDefault("booking.delay", time.Second)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", 24*time.Hour)
	v.SetDefault("ratelimit.requests", 120)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.trust_proxy", false)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "carclub")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "carclub")
	v.SetDefault("mqtt.prefix", "carclub")
}

// LoadDotEnv reads the given files (default .env) into the environment.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load resolves the configuration from v. Keys map to environment
// variables such as CARCLUB_FLEET_SIZE for fleet.size.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:         v.GetInt("port"),
		FleetSize:    v.GetInt("fleet.size"),
		LogLevel:     v.GetString("log.level"),
		LogFormat:    v.GetString("log.format"),
		SignInDelay:  v.GetDuration("signin.delay"),
		BookingDelay: v.GetDuration("booking.delay"),
		JWTSecret:    v.GetString("jwt.secret"),
		JWTExpiry:    v.GetDuration("jwt.expiry"),
		RateLimit:    v.GetInt("ratelimit.requests"),
		RateWindow:   v.GetDuration("ratelimit.window"),
		TrustProxy:   v.GetBool("ratelimit.trust_proxy"),
		CacheTTL:     v.GetDuration("cache.ttl"),
		SessionIdle:  v.GetDuration("session.idle_ttl"),
		Mongo: MongoConfig{
			URI:      v.GetString("mongo.uri"),
			Database: v.GetString("mongo.database"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		MQTT: MQTTConfig{
			Broker:   v.GetString("mqtt.broker"),
			ClientID: v.GetString("mqtt.client_id"),
			Prefix:   v.GetString("mqtt.prefix"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.FleetSize < 0 {
		return fmt.Errorf("fleet size must not be negative: %d", c.FleetSize)
	}
	if c.RateLimit < 1 || c.RateWindow <= 0 {
		return fmt.Errorf("invalid rate limit %d per %s", c.RateLimit, c.RateWindow)
	}
	if c.SessionIdle <= 0 {
		return fmt.Errorf("session idle ttl must be positive: %s", c.SessionIdle)
	}
	if c.SignInDelay < 0 || c.BookingDelay < 0 {
		return errors.New("delays must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ConfigureLogging applies level and format to logger.
func (c *Config) ConfigureLogging(logger *log.Logger) {
	if level, err := log.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
