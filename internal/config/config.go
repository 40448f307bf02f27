package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	// MaxMessageBytes caps a single websocket frame.
	MaxMessageBytes    int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendBuffer         int   `mapstructure:"send_buffer" yaml:"send_buffer"`
	RateLimitPerMinute int   `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	Store      StoreConfig      `mapstructure:"store" yaml:"store"`
	Documents  DocumentsConfig  `mapstructure:"documents" yaml:"documents"`
	Auth       AuthConfig       `mapstructure:"auth" yaml:"auth"`
	Whiteboard WhiteboardConfig `mapstructure:"whiteboard" yaml:"whiteboard"`
	Chat       ChatConfig       `mapstructure:"chat" yaml:"chat"`
}

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
)

// StoreConfig selects and configures the room store backend.
type StoreConfig struct {
	Driver        string `mapstructure:"driver" yaml:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database" yaml:"mongo_database"`
	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// DocumentsConfig controls uploaded file storage.
type DocumentsConfig struct {
	Dir            string `mapstructure:"dir" yaml:"dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// AuthConfig verifies identity tokens issued elsewhere. An empty secret
// disables verification.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Issuer    string `mapstructure:"issuer" yaml:"issuer"`
	Audience  string `mapstructure:"audience" yaml:"audience"`
	Required  bool   `mapstructure:"required" yaml:"required"`
}

// WhiteboardConfig tunes stroke handling.
type WhiteboardConfig struct {
	OptimisticBroadcast bool `mapstructure:"optimistic_broadcast" yaml:"optimistic_broadcast"`
}

// ChatConfig tunes chat history and message limits.
type ChatConfig struct {
	HistoryLimit  int `mapstructure:"history_limit" yaml:"history_limit"`
	MaxTextLength int `mapstructure:"max_text_length" yaml:"max_text_length"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		MaxMessageBytes:    64 << 10,
		SendBuffer:         64,
		RateLimitPerMinute: 600,
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    "wireroom.db",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "wireroom",
			RedisAddr:     "localhost:6379",
		},
		Documents: DocumentsConfig{
			Dir:            "uploads",
			MaxUploadBytes: 10 << 20,
		},
		Whiteboard: WhiteboardConfig{OptimisticBroadcast: true},
		Chat: ChatConfig{
			HistoryLimit:  100,
			MaxTextLength: 2000,
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the flag-backed fields are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
}
