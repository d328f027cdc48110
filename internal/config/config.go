package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Token verification
	JWT JWTConfig `json:"jwt"`

	// Realtime gateway tuning
	Gateway GatewayConfig `json:"gateway"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	ReadTimeout  int    `json:"read_timeout"`  // seconds
	WriteTimeout int    `json:"write_timeout"` // seconds
	Environment  string `json:"environment"`   // development, staging, production
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	DatabaseName string `json:"database_name"`
	MaxOpenConns int    `json:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns"`
}

type JWTConfig struct {
	Secret string `json:"-"`
}

// GatewayConfig contains websocket gateway configuration
type GatewayConfig struct {
	PingInterval   time.Duration `json:"ping_interval"`
	PongWait       time.Duration `json:"pong_wait"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	MaxMessageSize int64         `json:"max_message_size"`
	SendBufferSize int           `json:"send_buffer_size"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// Load builds the configuration from environment variables with sane
// defaults for local development. Secrets have no default.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvOrDefault("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvIntOrDefault("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 15),
			Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnvOrDefault("DB_HOST", "localhost"),
			Port:         getEnvOrDefault("DB_PORT", "3306"),
			Username:     getEnvOrDefault("DB_USER", "charityops"),
			Password:     getEnvOrDefault("DB_PASSWORD", ""),
			DatabaseName: getEnvOrDefault("DB_NAME", "charityops_db"),
			MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Gateway: GatewayConfig{
			PingInterval:   time.Duration(getEnvIntOrDefault("WS_PING_INTERVAL", 30)) * time.Second,
			PongWait:       time.Duration(getEnvIntOrDefault("WS_PONG_WAIT", 60)) * time.Second,
			WriteTimeout:   time.Duration(getEnvIntOrDefault("WS_WRITE_TIMEOUT", 10)) * time.Second,
			MaxMessageSize: int64(getEnvIntOrDefault("WS_MAX_MESSAGE_SIZE", 64*1024)),
			SendBufferSize: getEnvIntOrDefault("WS_SEND_BUFFER_SIZE", 256),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}
}

// DSN builds the MySQL connection string.
func (cfg *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

// Addr is the host:port the HTTP server binds to.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
