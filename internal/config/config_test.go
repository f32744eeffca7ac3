package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/rounds/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"
store = "postgres"
archive = "blob"

[database]
host = "localhost"
port = 5432
name = "rounds"
user = "rounds"
password = "rounds"

[storage]
container_name = "turns"
connection_string = "DefaultEndpointsProtocol=http;AccountName=roundsstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/roundsstore;"

[pagination]
default_page_size = 25
max_page_size = 50

[oracle]
provider = "agent"
max_response_size = "128KB"

[oracle.agent]
provider = "ollama"
base_url = "http://localhost:11434"
model = "llama3.1:8b"

[pipeline]
max_attempts = 3
stage_timeout = "45s"
turn_timeout = "5m"
workers = 2

[logging]
level = "debug"
format = "json"
`

const overlayConfig = `
[database]
host = "prodhost"

[pipeline]
workers = 8
`

const memoryConfig = `
store = "memory"

[oracle]
provider = "script"
script = "scenario.yaml"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	t.Chdir(dir)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if !cfg.UsesDatabase() || !cfg.UsesArchive() {
		t.Errorf("backends: store=%s archive=%s", cfg.Store, cfg.Archive)
	}
	if cfg.Database.Name != "rounds" {
		t.Errorf("database name: got %s, want rounds", cfg.Database.Name)
	}
	if cfg.Storage.ContainerName != "turns" {
		t.Errorf("container name: got %s, want turns", cfg.Storage.ContainerName)
	}
	if cfg.Pagination.DefaultPageSize != 25 {
		t.Errorf("default page size: got %d, want 25", cfg.Pagination.DefaultPageSize)
	}
	if got := cfg.Oracle.MaxResponseBytes(); got != 128*1024 {
		t.Errorf("max response bytes: got %d, want %d", got, 128*1024)
	}
	if cfg.Oracle.Agent.Name != "rounds" {
		t.Errorf("agent name: got %s, want default rounds", cfg.Oracle.Agent.Name)
	}
	if cfg.Pipeline.MaxAttempts != 3 || cfg.Pipeline.Workers != 2 {
		t.Errorf("pipeline: got attempts=%d workers=%d", cfg.Pipeline.MaxAttempts, cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.StageTimeoutDuration() != 45*time.Second {
		t.Errorf("stage timeout: got %s, want 45s", cfg.Pipeline.StageTimeoutDuration())
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("log format: got %s, want json", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %s, want 30s", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", memoryConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.UsesDatabase() || cfg.UsesArchive() {
		t.Errorf("backends: store=%s archive=%s, want memory/none", cfg.Store, cfg.Archive)
	}
	if cfg.Pipeline.MaxAttempts != 2 {
		t.Errorf("max attempts: got %d, want 2", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Pipeline.TurnTimeoutDuration() != 10*time.Minute {
		t.Errorf("turn timeout: got %s, want 10m", cfg.Pipeline.TurnTimeoutDuration())
	}
	if cfg.Oracle.MaxResponseBytes() != 256*1024 {
		t.Errorf("max response bytes: got %d, want %d", cfg.Oracle.MaxResponseBytes(), 256*1024)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging: got %s/%s, want info/text", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Pagination.MaxPageSize == 0 {
		t.Error("pagination defaults not applied")
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv("ROUNDS_ENV", "prod")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Database.Host != "prodhost" {
		t.Errorf("database host: got %s, want prodhost", cfg.Database.Host)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Errorf("workers: got %d, want 8", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.MaxAttempts != 3 {
		t.Errorf("max attempts: got %d, want base value 3", cfg.Pipeline.MaxAttempts)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("ROUNDS_DB_HOST", "envhost")
	t.Setenv("ROUNDS_PIPELINE_MAX_ATTEMPTS", "4")
	t.Setenv("ROUNDS_LOG_LEVEL", "warn")
	t.Setenv("ROUNDS_AGENT_TOKEN", "secret")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Database.Host != "envhost" {
		t.Errorf("database host: got %s, want envhost", cfg.Database.Host)
	}
	if cfg.Pipeline.MaxAttempts != 4 {
		t.Errorf("max attempts: got %d, want 4", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("log level: got %s, want warn", cfg.Logging.Level)
	}
	if got := cfg.Oracle.Agent.Options["token"]; got != "secret" {
		t.Errorf("agent token option: got %v, want secret", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad store", `store = "redis"`, "invalid store"},
		{"bad archive", "store = \"memory\"\narchive = \"s3\"", "invalid archive"},
		{"bad shutdown", "store = \"memory\"\nshutdown_timeout = \"soon\"", "invalid shutdown_timeout"},
		{"script without path", "store = \"memory\"\n[oracle]\nprovider = \"script\"", "script path required"},
		{"agent without model", "store = \"memory\"\n[oracle.agent]\nprovider = \"ollama\"", "model required"},
		{"zero attempts", "store = \"memory\"\n[oracle]\nprovider = \"script\"\nscript = \"s.yaml\"\n[pipeline]\nmax_attempts = -1", "max_attempts"},
		{"bad log format", "store = \"memory\"\n[oracle]\nprovider = \"script\"\nscript = \"s.yaml\"\n[logging]\nformat = \"xml\"", "invalid format"},
		{"database without user", "[oracle]\nprovider = \"script\"\nscript = \"s.yaml\"", "user required"},
		{"malformed", "store = ", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.content)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ROUNDS_STORE", "memory")
	t.Setenv("ROUNDS_ORACLE_PROVIDER", "script")
	t.Setenv("ROUNDS_ORACLE_SCRIPT", "scenario.yaml")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Store != config.StoreMemory || cfg.Oracle.Script != "scenario.yaml" {
		t.Errorf("env config: store=%s script=%s", cfg.Store, cfg.Oracle.Script)
	}
}
