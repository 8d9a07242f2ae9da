// Package config provides the configuration of the key exchange node.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/arkilian/sortedkeys/internal/exchange"
)

// Config holds the configuration of a key exchange node.
type Config struct {
	// NodeID identifies this node in logs
	NodeID string `json:"node_id" yaml:"node_id"`

	// SchemaFile is the YAML or JSON file listing the table schemas whose
	// indexes are served
	SchemaFile string `json:"schema_file" yaml:"schema_file"`

	// gRPC configuration
	GRPC GRPCConfig `json:"grpc" yaml:"grpc"`

	// Key set exchange configuration
	Exchange ExchangeConfig `json:"exchange" yaml:"exchange"`

	// Logging configuration
	Log LogConfig `json:"log" yaml:"log"`
}

// GRPCConfig holds gRPC server configuration.
type GRPCConfig struct {
	// Addr is the gRPC server address
	Addr string `json:"addr" yaml:"addr"`

	// Enabled controls whether gRPC is enabled
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// ExchangeConfig holds key set exchange configuration.
type ExchangeConfig struct {
	// CompressThreshold is the frame body size from which frames are
	// snappy compressed; negative disables compression
	CompressThreshold int `json:"compress_threshold" yaml:"compress_threshold"`

	// RequestTimeout bounds a single remote key set fetch
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is a logrus level name: debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format is text or json
	Format string `json:"format" yaml:"format"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		GRPC: GRPCConfig{
			Addr:    ":9090",
			Enabled: true,
		},
		Exchange: ExchangeConfig{
			CompressThreshold: exchange.DefaultCompressThreshold,
			RequestTimeout:    5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Resolve fills derived defaults.
func (c *Config) Resolve() {
	if c.NodeID == "" {
		if host, err := os.Hostname(); err == nil {
			c.NodeID = host
		} else {
			c.NodeID = "arkilian-keys"
		}
	}
	if c.SchemaFile != "" {
		if abs, err := filepath.Abs(c.SchemaFile); err == nil {
			c.SchemaFile = abs
		}
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.GRPC.Enabled && c.GRPC.Addr == "" {
		return fmt.Errorf("grpc.addr is required when grpc is enabled")
	}

	if c.Exchange.RequestTimeout <= 0 {
		return fmt.Errorf("exchange.request_timeout must be positive, got %s", c.Exchange.RequestTimeout)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %s", c.Log.Level)
	}

	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format: %s (must be text or json)", c.Log.Format)
	}

	return nil
}

// ExchangeOptions returns the frame encoding options.
func (c *Config) ExchangeOptions() exchange.Options {
	return exchange.Options{CompressThreshold: c.Exchange.CompressThreshold}
}

// NewLogger builds a logrus logger from the logging configuration.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log.level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if c.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the ARKILIAN_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("ARKILIAN_NODE_ID"); v != "" {
		cfg.NodeID = v
	}
	if v := os.Getenv("ARKILIAN_SCHEMA_FILE"); v != "" {
		cfg.SchemaFile = v
	}

	// gRPC configuration
	if v := os.Getenv("ARKILIAN_GRPC_ADDR"); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := os.Getenv("ARKILIAN_GRPC_ENABLED"); v != "" {
		cfg.GRPC.Enabled = v == "true" || v == "1"
	}

	// Exchange configuration
	if v := os.Getenv("ARKILIAN_EXCHANGE_COMPRESS_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Exchange.CompressThreshold = n
		}
	}
	if v := os.Getenv("ARKILIAN_EXCHANGE_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Exchange.RequestTimeout = d
		}
	}

	// Logging configuration
	if v := os.Getenv("ARKILIAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ARKILIAN_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
