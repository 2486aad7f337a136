package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Auth     AuthConfig     `toml:"auth"`
	UI       UIConfig       `toml:"ui"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Backend    string `toml:"backend"`  // "sqlite" or "http"
	BaseURL    string `toml:"base_url"` // document API base URL for the http backend
	Collection string `toml:"collection"`
}

// DatabaseConfig contains sqlite connection settings for the local backend.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// AuthConfig contains OIDC provider credentials.
type AuthConfig struct {
	Issuer       string `toml:"issuer"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// UIConfig contains display preferences.
type UIConfig struct {
	Theme string `toml:"theme"` // "light" or "dark"
}

// LoadConfig reads and parses a TOML configuration file from the specified
// path, then applies environment overrides (see [ApplyEnv]). A .env file in
// the working directory is loaded first if present.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	_ = godotenv.Load()
	ApplyEnv(&config)

	return &config, nil
}

// ApplyEnv overrides config fields from MEDIALOG_* environment variables.
// Credentials in particular are commonly supplied this way rather than
// committed to config.toml.
func ApplyEnv(config *Config) {
	if v := os.Getenv("MEDIALOG_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("MEDIALOG_STORE_URL"); v != "" {
		config.Store.BaseURL = v
	}
	if v := os.Getenv("MEDIALOG_DB_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("MEDIALOG_OIDC_ISSUER"); v != "" {
		config.Auth.Issuer = v
	}
	if v := os.Getenv("MEDIALOG_OIDC_CLIENT_ID"); v != "" {
		config.Auth.ClientID = v
	}
	if v := os.Getenv("MEDIALOG_OIDC_CLIENT_SECRET"); v != "" {
		config.Auth.ClientSecret = v
	}
	if v := os.Getenv("MEDIALOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
