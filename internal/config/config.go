package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config dengue-client configuration.
// Precedence: defaults < CONFIG_FILE (yaml) < environment variables.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Hub      HubConfig      `yaml:"hub"`
	Session  SessionConfig  `yaml:"session"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Import   ImportConfig   `yaml:"import"`
	Feature  FeatureConfig  `yaml:"feature"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig backend REST API
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// HubConfig real-time case hub (SignalR JSON protocol)
type HubConfig struct {
	Enabled        bool          `yaml:"enabled"`
	URL            string        `yaml:"url"` // e.g. http://host/hubs/cases
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	Stream         string        `yaml:"stream"` // optional Redis stream for fan-out, empty = disabled
}

// SessionConfig session/preference store
type SessionConfig struct {
	Backend   string `yaml:"backend"` // file | redis | postgres | memory (not persisted)
	Path      string `yaml:"path"`    // file backend, empty = <user config dir>/dengue-client/session.yaml
	KeyPrefix string `yaml:"key_prefix"`
}

// RedisConfig Redis connection
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig Postgres connection for the SQL session backend
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MaxIdle  int    `yaml:"max_idle"`
}

// MQTTConfig push-notification ingress (disabled by default)
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// ImportConfig file import
type ImportConfig struct {
	PreviewRows int `yaml:"preview_rows"`
}

// FeatureConfig state-holder tuning
type FeatureConfig struct {
	CasePageSize int `yaml:"case_page_size"`
}

// LogConfig logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GetDSN returns the lib/pq connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

func defaults() *Config {
	cfg := &Config{}
	cfg.API.BaseURL = "http://localhost:5000/api"
	cfg.API.Timeout = 30 * time.Second
	cfg.API.UserAgent = "dengue-client/1.0"

	cfg.Hub.URL = "http://localhost:5000/hubs/cases"
	cfg.Hub.ReconnectDelay = 5 * time.Second

	cfg.Session.Backend = "file"
	cfg.Session.KeyPrefix = "dengue:session:"

	cfg.Redis.Addr = "localhost:6379"

	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.User = "postgres"
	cfg.Database.Password = "postgres"
	cfg.Database.Database = "dengue_client"
	cfg.Database.SSLMode = "disable"

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "dengue-client"
	cfg.MQTT.Topic = "dengue/notifications"
	cfg.MQTT.QoS = 1

	cfg.Import.PreviewRows = 10
	cfg.Feature.CasePageSize = 20

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load builds the configuration.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.API.BaseURL = getEnv("API_BASE_URL", cfg.API.BaseURL)
	cfg.API.Timeout = getDuration("API_TIMEOUT", cfg.API.Timeout)
	cfg.API.UserAgent = getEnv("API_USER_AGENT", cfg.API.UserAgent)

	cfg.Hub.Enabled = getBool("HUB_ENABLED", cfg.Hub.Enabled)
	cfg.Hub.URL = getEnv("HUB_URL", cfg.Hub.URL)
	cfg.Hub.ReconnectDelay = getDuration("HUB_RECONNECT_DELAY", cfg.Hub.ReconnectDelay)
	cfg.Hub.Stream = getEnv("HUB_STREAM", cfg.Hub.Stream)

	cfg.Session.Backend = getEnv("SESSION_BACKEND", cfg.Session.Backend)
	cfg.Session.Path = getEnv("SESSION_PATH", cfg.Session.Path)
	cfg.Session.KeyPrefix = getEnv("SESSION_KEY_PREFIX", cfg.Session.KeyPrefix)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", ""), cfg.Redis.DB)

	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = parseInt(getEnv("DB_PORT", ""), cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnv("DB_NAME", cfg.Database.Database)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.MQTT.Enabled = getBool("MQTT_ENABLED", cfg.MQTT.Enabled)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", cfg.MQTT.Broker)
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", cfg.MQTT.Topic)

	cfg.Import.PreviewRows = parseInt(getEnv("IMPORT_PREVIEW_ROWS", ""), cfg.Import.PreviewRows)
	cfg.Feature.CasePageSize = parseInt(getEnv("CASE_PAGE_SIZE", ""), cfg.Feature.CasePageSize)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case "file", "redis", "postgres", "memory":
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q (want file, redis, postgres or memory)", c.Session.Backend)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}
	if c.Feature.CasePageSize <= 0 {
		c.Feature.CasePageSize = 20
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true" || v == "1"
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
