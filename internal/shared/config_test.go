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

		if config.Database.Path != "./playsync.db" {
			t.Errorf("expected database path ./playsync.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Sync.DurationSlackSeconds != 7 {
			t.Errorf("expected slack 7, got %d", config.Sync.DurationSlackSeconds)
		}

		if config.Sync.Window != 10 || config.Sync.ReverseWindow != 10 {
			t.Errorf("expected windows of 10, got %d/%d", config.Sync.Window, config.Sync.ReverseWindow)
		}

		if config.Sync.CacheBackend != CacheBackendFile {
			t.Errorf("expected file backend, got %s", config.Sync.CacheBackend)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
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

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[sync]
duration_slack_seconds = 9
window = 15
cache_backend = "sqlite"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[[pairs]]
name = "gym"
source_playlist = "sp123"
target_playlist = "PL456"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Sync.DurationSlackSeconds != 9 {
			t.Errorf("expected slack 9, got %d", config.Sync.DurationSlackSeconds)
		}

		if config.Sync.ReverseWindow != 10 {
			t.Errorf("expected reverse window to keep default 10, got %d", config.Sync.ReverseWindow)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		pair, err := config.Pair("gym")
		if err != nil {
			t.Fatalf("expected pair gym, got %v", err)
		}
		if pair.SourcePlaylist != "sp123" || pair.TargetPlaylist != "PL456" {
			t.Errorf("unexpected pair %+v", pair)
		}

		if _, err := config.Pair("missing"); !errors.Is(err, ErrUnknownPair) {
			t.Errorf("expected ErrUnknownPair, got %v", err)
		}
	})

	t.Run("LoadConfig rejects invalid backend", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[sync]\ncache_backend = \"redis\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("ApplyEnv overrides credentials", func(t *testing.T) {
		t.Setenv("PLAYSYNC_YOUTUBE_CLIENT_ID", "env-id")
		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.YouTube.ClientID != "env-id" {
			t.Errorf("expected env override, got %s", config.Credentials.YouTube.ClientID)
		}
	})

	t.Run("ExpandPath", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}
		if got := ExpandPath("~/x"); got != filepath.Join(home, "x") {
			t.Errorf("expected %s, got %s", filepath.Join(home, "x"), got)
		}
		if got := ExpandPath("/abs"); got != "/abs" {
			t.Errorf("expected /abs unchanged, got %s", got)
		}
	})
}
