package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./festa.db" {
			t.Errorf("expected database path ./festa.db, got %s", config.Database.Path)
		}

		if config.API.BaseURL != "https://noma.minq.work" {
			t.Errorf("expected api base URL https://noma.minq.work, got %s", config.API.BaseURL)
		}

		if config.Pager.Margin != 3 {
			t.Errorf("expected pager margin 3, got %d", config.Pager.Margin)
		}

		if config.Export.Workers != 4 {
			t.Errorf("expected 4 export workers, got %d", config.Export.Workers)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should be valid: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[api]
base_url = "http://localhost:9090"
timeout_seconds = 3

[maps]
google_maps_key = "test_maps_key"

[database]
path = "/custom/path.db"

[pager]
margin = 5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "http://localhost:9090" {
			t.Errorf("expected base URL http://localhost:9090, got %s", config.API.BaseURL)
		}
		if config.API.Timeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.API.Timeout())
		}
		if config.Maps.GoogleMapsKey != "test_maps_key" {
			t.Errorf("expected maps key test_maps_key, got %s", config.Maps.GoogleMapsKey)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Pager.Margin != 5 {
			t.Errorf("expected pager margin 5, got %d", config.Pager.Margin)
		}

		t.Run("keeps defaults for omitted sections", func(t *testing.T) {
			if config.Export.Workers != 4 {
				t.Errorf("expected default export workers 4, got %d", config.Export.Workers)
			}
		})
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvAPIURL, "http://env.example.com")
		t.Setenv(EnvMapsKey, "env_key")
		t.Setenv(EnvDBPath, "/tmp/env.db")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.API.BaseURL != "http://env.example.com" {
			t.Errorf("expected env base URL, got %s", config.API.BaseURL)
		}
		if config.Maps.GoogleMapsKey != "env_key" {
			t.Errorf("expected env maps key, got %s", config.Maps.GoogleMapsKey)
		}
		if config.Database.Path != "/tmp/env.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			baseURL string
			margin  int
			wantErr bool
		}{
			{name: "valid", baseURL: "https://api.example.com", margin: 2},
			{name: "empty base URL", baseURL: "", wantErr: true},
			{name: "relative base URL", baseURL: "/app", wantErr: true},
			{name: "negative margin", baseURL: "https://api.example.com", margin: -1, wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				config.API.BaseURL = tt.baseURL
				config.Pager.Margin = tt.margin

				err := config.Validate()
				if tt.wantErr {
					if !errors.Is(err, ErrInvalidConfig) {
						t.Errorf("expected ErrInvalidConfig, got %v", err)
					}
					return
				}
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			})
		}
	})
}
