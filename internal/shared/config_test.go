package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./classify.db" {
			t.Errorf("expected database path ./classify.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3001 {
			t.Errorf("expected server port 3001, got %d", config.Server.Port)
		}
		if config.Clustering.URL != "http://localhost:5000" {
			t.Errorf("expected clustering URL http://localhost:5000, got %s", config.Clustering.URL)
		}
		if config.Credentials.OpenAI.Model != "gpt-3.5-turbo" {
			t.Errorf("expected model gpt-3.5-turbo, got %s", config.Credentials.OpenAI.Model)
		}
		if config.Credentials.OpenAI.MaxTokens != 50 {
			t.Errorf("expected max_tokens 50, got %d", config.Credentials.OpenAI.MaxTokens)
		}
		if temp := config.Credentials.OpenAI.Temperature; temp == nil || *temp != 0.7 {
			t.Errorf("expected temperature 0.7, got %v", temp)
		}
		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Server.Addr() != "localhost:3001" {
			t.Errorf("expected addr localhost:3001, got %s", config.Server.Addr())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("Zero Temperature Is Kept", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[credentials.openai]\ntemperature = 0\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if temp := config.Credentials.OpenAI.Temperature; temp == nil || *temp != 0 {
			t.Errorf("expected temperature 0, got %v", temp)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
port = 8080

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.TokenURL != "https://accounts.spotify.com/api/token" {
			t.Errorf("expected default token url to survive partial config, got %s", config.Credentials.Spotify.TokenURL)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.LastFM.APIKey = "saved_key"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Credentials.LastFM.APIKey != "saved_key" {
			t.Errorf("expected saved_key, got %s", loaded.Credentials.LastFM.APIKey)
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Run("environment overrides", func(t *testing.T) {
			t.Setenv("CLIENT_ID", "env_client")
			t.Setenv("OPENAI_API_KEY", "env_openai")
			t.Setenv("PORT", "9090")

			config := DefaultConfig()
			if err := config.ApplyEnv(); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if config.Credentials.Spotify.ClientID != "env_client" {
				t.Errorf("expected env_client, got %s", config.Credentials.Spotify.ClientID)
			}
			if config.Credentials.OpenAI.APIKey != "env_openai" {
				t.Errorf("expected env_openai, got %s", config.Credentials.OpenAI.APIKey)
			}
			if config.Server.Port != 9090 {
				t.Errorf("expected port 9090, got %d", config.Server.Port)
			}
		})

		t.Run("invalid port", func(t *testing.T) {
			t.Setenv("PORT", "not-a-port")

			err := DefaultConfig().ApplyEnv()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("dotenv file", func(t *testing.T) {
			envPath := filepath.Join(t.TempDir(), ".env")
			if err := os.WriteFile(envPath, []byte("LASTFM_API_KEY=from_dotenv\n"), 0644); err != nil {
				t.Fatalf("failed to write env file: %v", err)
			}
			t.Setenv("LASTFM_API_KEY", "")
			os.Unsetenv("LASTFM_API_KEY")
			t.Cleanup(func() { os.Unsetenv("LASTFM_API_KEY") })

			config := DefaultConfig()
			if err := config.ApplyEnv(envPath, filepath.Join(t.TempDir(), "missing.env")); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Credentials.LastFM.APIKey != "from_dotenv" {
				t.Errorf("expected from_dotenv, got %s", config.Credentials.LastFM.APIKey)
			}
		})
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}

		config.Credentials.Spotify.ClientSecret = ""
		if err := config.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		config = DefaultConfig()
		config.Server.Port = 0
		if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}
