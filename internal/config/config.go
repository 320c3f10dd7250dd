package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
}

// Telegram bot configuration
type BotConfig struct {
	Token string `mapstructure:"token"`
	// OwnerID is the only identity allowed to upload, broadcast and edit messages
	OwnerID int64 `mapstructure:"owner_id"`
	// UploadChannelID mirrors every accepted upload when non-zero
	UploadChannelID int64         `mapstructure:"upload_channel_id"`
	Webhook         WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration
type WebhookConfig struct {
	Endpoint   string `mapstructure:"endpoint"`
	ListenPort string `mapstructure:"listen_port"`
	DebugPath  string `mapstructure:"debug_path"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory  string            `mapstructure:"directory"`
	Rotation   LogRotationConfig `mapstructure:"rotation"`
	TimeFormat string            `mapstructure:"time_format"`
	Level      string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	// DSN is used as-is by the sqlite driver
	DSN      string `mapstructure:"dsn"`
	LogLevel string `mapstructure:"log_level"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// upload session settings
type UploadConfig struct {
	SessionIDLength int `mapstructure:"session_id_length"`
	MaxIDAttempts   int `mapstructure:"max_id_attempts"`
}

type DeliveryConfig struct {
	SendInterval time.Duration `mapstructure:"send_interval"`
}

type BroadcastConfig struct {
	SendInterval time.Duration `mapstructure:"send_interval"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// UseWebhook reports whether updates arrive via webhook instead of long polling
func (c *Config) UseWebhook() bool {
	return c.Bot.Webhook.Endpoint != ""
}

// Validate checks the settings the bot cannot start without
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot token is required")
	}
	if c.Bot.OwnerID == 0 {
		return fmt.Errorf("bot owner_id is required")
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}
	if c.Upload.SessionIDLength < 8 {
		return fmt.Errorf("upload.session_id_length must be at least 8, got %d", c.Upload.SessionIDLength)
	}
	if c.Upload.MaxIDAttempts < 1 {
		return fmt.Errorf("upload.max_id_attempts must be positive")
	}
	return nil
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("FILEDROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.owner_id", 0)
	v.SetDefault("bot.upload_channel_id", 0)
	v.SetDefault("bot.webhook.endpoint", "")
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.debug_path", "/debug")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.time_format", "2006/01/02 15:04:05")
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "filedrop")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.dsn", "filedrop.db")
	v.SetDefault("database.log_level", "WARNING")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", "24h")

	v.SetDefault("upload.session_id_length", 12)
	v.SetDefault("upload.max_id_attempts", 5)

	v.SetDefault("delivery.send_interval", "500ms")
	v.SetDefault("broadcast.send_interval", "100ms")
}
