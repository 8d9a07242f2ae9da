package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arkilian/sortedkeys/internal/exchange"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.NodeID == "" {
		t.Error("Resolve should fill NodeID")
	}
	if cfg.ExchangeOptions().CompressThreshold != exchange.DefaultCompressThreshold {
		t.Errorf("unexpected exchange options %+v", cfg.ExchangeOptions())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "node.yaml")
	yamlDoc := `
node_id: node-a
schema_file: schema.yaml
grpc:
  addr: ":9191"
  enabled: true
exchange:
  compress_threshold: -1
  request_timeout: 2s
log:
  level: debug
  format: json
`
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.NodeID != "node-a" || cfg.GRPC.Addr != ":9191" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Exchange.CompressThreshold != -1 || cfg.Exchange.RequestTimeout != 2*time.Second {
		t.Errorf("unexpected exchange config %+v", cfg.Exchange)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}

	jsonPath := filepath.Join(dir, "node.json")
	if err := os.WriteFile(jsonPath, []byte(`{"node_id":"node-b","grpc":{"addr":":7000","enabled":false}}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFromFile(json) failed: %v", err)
	}
	if cfg.NodeID != "node-b" || cfg.GRPC.Enabled {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("defaults should survive partial files, got level %q", cfg.Log.Level)
	}

	txtPath := filepath.Join(dir, "node.txt")
	if err := os.WriteFile(txtPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(txtPath); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARKILIAN_NODE_ID", "env-node")
	t.Setenv("ARKILIAN_GRPC_ADDR", ":9999")
	t.Setenv("ARKILIAN_GRPC_ENABLED", "false")
	t.Setenv("ARKILIAN_EXCHANGE_COMPRESS_THRESHOLD", "1024")
	t.Setenv("ARKILIAN_EXCHANGE_REQUEST_TIMEOUT", "750ms")
	t.Setenv("ARKILIAN_LOG_LEVEL", "WARN")
	t.Setenv("ARKILIAN_SCHEMA_FILE", "/etc/arkilian/schema.yaml")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)
	cfg.Resolve()

	if cfg.NodeID != "env-node" || cfg.GRPC.Addr != ":9999" || cfg.GRPC.Enabled {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Exchange.CompressThreshold != 1024 || cfg.Exchange.RequestTimeout != 750*time.Millisecond {
		t.Errorf("unexpected exchange config %+v", cfg.Exchange)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Resolve should lower-case the level, got %q", cfg.Log.Level)
	}
	if cfg.SchemaFile != "/etc/arkilian/schema.yaml" {
		t.Errorf("unexpected schema file %q", cfg.SchemaFile)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"missing grpc addr", func(c *Config) { c.GRPC.Addr = "" }},
		{"zero timeout", func(c *Config) { c.Exchange.RequestTimeout = 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.GRPC.Enabled = false
	cfg.GRPC.Addr = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("addr is not required with grpc disabled: %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	logger, err := cfg.NewLogger()
	if err != nil {
		t.Fatal(err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want JSONFormatter", logger.Formatter)
	}
}
