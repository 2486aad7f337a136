package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./medialog.db" {
			t.Errorf("expected database path ./medialog.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Store.Backend != "sqlite" {
			t.Errorf("expected sqlite backend, got %s", config.Store.Backend)
		}

		if config.Store.Collection != "media" {
			t.Errorf("expected collection media, got %s", config.Store.Collection)
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

		testConfig := `[store]
backend = "http"
base_url = "http://localhost:9090"
collection = "media"

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[server]
host = "0.0.0.0"
port = 8080

[auth]
issuer = "https://id.example.com"
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:8080/callback"

[ui]
theme = "dark"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Store.Backend != "http" {
			t.Errorf("expected backend http, got %s", config.Store.Backend)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Auth.ClientID != "test_client_id" {
			t.Errorf("expected client_id test_client_id, got %s", config.Auth.ClientID)
		}

		if config.UI.Theme != "dark" {
			t.Errorf("expected theme dark, got %s", config.UI.Theme)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv("MEDIALOG_STORE_BACKEND", "http")
		t.Setenv("MEDIALOG_OIDC_CLIENT_ID", "env_client")
		t.Setenv("MEDIALOG_SERVER_PORT", "4000")

		config := DefaultConfig()
		ApplyEnv(config)

		if config.Store.Backend != "http" {
			t.Errorf("expected env override backend http, got %s", config.Store.Backend)
		}

		if config.Auth.ClientID != "env_client" {
			t.Errorf("expected env override client id, got %s", config.Auth.ClientID)
		}

		if config.Server.Port != 4000 {
			t.Errorf("expected env override port 4000, got %d", config.Server.Port)
		}
	})
}
