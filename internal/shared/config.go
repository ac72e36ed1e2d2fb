package shared

import (
	"bytes"
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
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Clustering  ClusteringConfig  `toml:"clustering"`
	LogLevel    string            `toml:"log_level"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	OpenAI  OpenAIConfig  `toml:"openai"`
	LastFM  LastFMConfig  `toml:"lastfm"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenURL     string `toml:"token_url"`
	APIURL       string `toml:"api_url"`
}

// OpenAIConfig contains chat-completion settings.
type OpenAIConfig struct {
	APIKey      string   `toml:"api_key"`
	BaseURL     string   `toml:"base_url"`
	Model       string   `toml:"model"`
	MaxTokens   int      `toml:"max_tokens"`
	Temperature *float64 `toml:"temperature"` // nil uses 0.7
}

// LastFMConfig contains Last.fm API settings.
type LastFMConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ClusteringConfig points at the external clustering service.
//
// An empty URL makes every request use in-process k-means.
type ClusteringConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	DefaultK       int    `toml:"default_clusters"`
}

// DatabaseConfig contains database connection settings.
//
// The database only backs the tag cache; an empty path disables it.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	TagTTLHours  int    `toml:"tag_ttl_hours"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	FrontendURL         string   `toml:"frontend_url"`
	AllowedOrigins      []string `toml:"allowed_origins"`
	SecureCookies       bool     `toml:"secure_cookies"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// envOverrides maps environment variables onto config fields.
var envOverrides = map[string]func(c *Config, v string) error{
	"CLIENT_ID":      func(c *Config, v string) error { c.Credentials.Spotify.ClientID = v; return nil },
	"CLIENT_SECRET":  func(c *Config, v string) error { c.Credentials.Spotify.ClientSecret = v; return nil },
	"REDIRECT_URI":   func(c *Config, v string) error { c.Credentials.Spotify.RedirectURI = v; return nil },
	"OPENAI_API_KEY": func(c *Config, v string) error { c.Credentials.OpenAI.APIKey = v; return nil },
	"LASTFM_API_KEY": func(c *Config, v string) error { c.Credentials.LastFM.APIKey = v; return nil },
	"CLUSTERING_URL": func(c *Config, v string) error { c.Clustering.URL = v; return nil },
	"FRONTEND_URL":   func(c *Config, v string) error { c.Server.FrontendURL = v; return nil },
	"DATABASE_PATH":  func(c *Config, v string) error { c.Database.Path = v; return nil },
	"LOG_LEVEL":      func(c *Config, v string) error { c.LogLevel = v; return nil },
	"PORT": func(c *Config, v string) error {
		port, err := strconv.Atoi(v)
		if err != nil {
			return WrapErr(ErrInvalidConfig, "PORT=%q", v)
		}
		c.Server.Port = port
		return nil
	},
}

// ApplyEnv loads the given .env files (missing files are ignored) and then
// overrides config fields from the process environment.
func (c *Config) ApplyEnv(envFiles ...string) error {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	for key, apply := range envOverrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if err := apply(c, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret", ErrMissingCredentials)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return WrapErr(ErrInvalidConfig, "server port %d", c.Server.Port)
	}
	return nil
}
