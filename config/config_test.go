package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// chdirTemp moves the test into an empty directory so no config.yaml or .env leaks in
func chdirTemp(t *testing.T) string {
	t.Helper()
	originalDir, _ := os.Getwd()
	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		chdirTemp(t)

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Cache.TTL != 15*time.Minute {
			t.Errorf("Cache.TTL = %v, want 15m", cfg.Cache.TTL)
		}
		if cfg.Scraper.Timeout != 30*time.Second {
			t.Errorf("Scraper.Timeout = %v, want 30s", cfg.Scraper.Timeout)
		}
		if cfg.Pipeline.Concurrency != 2 {
			t.Errorf("Pipeline.Concurrency = %d, want 2", cfg.Pipeline.Concurrency)
		}
		want := []string{"newworld", "paknsave", "woolworths", "madbutcher"}
		if got := cfg.EnabledStores(); len(got) != len(want) || got[0] != want[0] || got[3] != want[3] {
			t.Errorf("EnabledStores() = %v, want %v", got, want)
		}
		if cfg.Output.Dir != "data" {
			t.Errorf("Output.Dir = %s, want data", cfg.Output.Dir)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("CHURBRO_SERVER_PORT", "9090")
		t.Setenv("CHURBRO_SERVER_ENVIRONMENT", "production")
		t.Setenv("CHURBRO_CACHE_TTL", "1h")
		t.Setenv("CHURBRO_PIPELINE_STRICT", "true")
		t.Setenv("CHURBRO_OUTPUT_DIR", "/srv/churbro")
		t.Setenv("CHURBRO_LOG_FORMAT", "json")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if !cfg.Pipeline.Strict {
			t.Error("Pipeline.Strict = false, want true")
		}
		if cfg.Output.Dir != "/srv/churbro" {
			t.Errorf("Output.Dir = %s, want /srv/churbro", cfg.Output.Dir)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
	})

	t.Run("loads store overrides from a config file", func(t *testing.T) {
		dir := chdirTemp(t)
		content := `
pipeline:
  stores: [madbutcher, newworld, woolworths]
stores:
  woolworths:
    enabled: false
  madbutcher:
    base_url: http://localhost:9000/shop/
    max_pages: 3
    min_price: "1.50"
`
		path := filepath.Join(dir, "churbro.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		stores := cfg.EnabledStores()
		if len(stores) != 2 || stores[0] != "madbutcher" || stores[1] != "newworld" {
			t.Errorf("EnabledStores() = %v, want [madbutcher newworld]", stores)
		}
		mb := cfg.Stores["madbutcher"]
		if mb.BaseURL != "http://localhost:9000/shop/" || mb.MaxPages != 3 || mb.MinPrice != "1.50" {
			t.Errorf("madbutcher override = %+v", mb)
		}
	})

	t.Run("explicit config file must exist", func(t *testing.T) {
		dir := chdirTemp(t)
		if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
			t.Error("Load() error = nil, want error for missing explicit config file")
		}
	})

	t.Run("fails validation for invalid log level", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("CHURBRO_LOG_LEVEL", "verbose")

		if _, err := Load(""); err == nil {
			t.Error("Load() error = nil, want error for invalid log level")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		chdirTemp(t)

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		chdirTemp(t)

		envContent := `
# Comment line
TEST_VAR_1=value1
   # indented comment

TEST_VAR_2="quoted value"
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_COMMENTED")
		defer os.Unsetenv("TEST_VAR_1")
		defer os.Unsetenv("TEST_VAR_2")

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "quoted value" {
			t.Errorf("TEST_VAR_2 = %s, want quoted value", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("export prefix and single quotes", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TEST_EXPORTED", "")
		os.Unsetenv("TEST_EXPORTED")

		if err := os.WriteFile(".env", []byte("export TEST_EXPORTED='a b'\n"), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_EXPORTED") != "a b" {
			t.Errorf("TEST_EXPORTED = %s, want a b", os.Getenv("TEST_EXPORTED"))
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		chdirTemp(t)
		t.Setenv("TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Scraper:  ScraperConfig{RequestsPerSecond: 1},
			Pipeline: PipelineConfig{Stores: []string{"newworld"}, Concurrency: 1},
			Output:   OutputConfig{Dir: "data"},
			Log:      LogConfig{Level: "info", Format: "text"},
		}
	}

	t.Run("validates successfully with all required fields", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
		{"zero concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }},
		{"no stores", func(c *Config) { c.Pipeline.Stores = nil }},
		{"zero request rate", func(c *Config) { c.Scraper.RequestsPerSecond = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad store amount", func(c *Config) {
			c.Stores = map[string]StoreConfig{"newworld": {MinPrice: "cheap"}}
		}},
	}
	for _, tt := range tests {
		t.Run("fails for "+tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := validate(cfg); err == nil {
				t.Error("validate() error = nil, want error")
			}
		})
	}
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "store", "newworld")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) || !strings.Contains(out, `"store":"newworld"`) {
		t.Errorf("warn line missing or not JSON: %s", out)
	}
}
