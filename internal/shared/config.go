package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Cache backends accepted by [SyncConfig.CacheBackend].
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
	Pairs       []PairConfig      `toml:"pairs"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify OAuthConfig `toml:"spotify"`
	YouTube OAuthConfig `toml:"youtube"`
}

// OAuthConfig contains OAuth2 client credentials and where the obtained token is stored.
type OAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// Configured reports whether a client id and secret are present.
func (o OAuthConfig) Configured() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

// DatabaseConfig contains database connection settings.
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

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SyncConfig contains the reconciliation control inputs.
type SyncConfig struct {
	DurationSlackSeconds int     `toml:"duration_slack_seconds"`
	Window               int     `toml:"window"`
	ReverseWindow        int     `toml:"reverse_window"`
	CacheBackend         string  `toml:"cache_backend"`
	CacheDir             string  `toml:"cache_dir"`
	RequestsPerSecond    float64 `toml:"requests_per_second"`
}

// PairConfig names a Spotify playlist and the YouTube playlist it is reconciled with.
type PairConfig struct {
	Name           string `toml:"name"`
	SourcePlaylist string `toml:"source_playlist"`
	TargetPlaylist string `toml:"target_playlist"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file fall back to the embedded defaults, and PLAYSYNC_* environment
// variables (optionally loaded from a .env file next to the config) override credentials.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
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

// ApplyEnv overrides credentials from PLAYSYNC_* environment variables.
func (c *Config) ApplyEnv() {
	for env, dst := range map[string]*string{
		"PLAYSYNC_SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"PLAYSYNC_SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"PLAYSYNC_YOUTUBE_CLIENT_ID":     &c.Credentials.YouTube.ClientID,
		"PLAYSYNC_YOUTUBE_CLIENT_SECRET": &c.Credentials.YouTube.ClientSecret,
		"PLAYSYNC_CACHE_DIR":             &c.Sync.CacheDir,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

// Validate checks sync settings and pair definitions.
func (c *Config) Validate() error {
	if c.Sync.DurationSlackSeconds <= 0 {
		return fmt.Errorf("%w: duration_slack_seconds must be positive", ErrInvalidConfig)
	}
	if c.Sync.Window <= 0 || c.Sync.ReverseWindow <= 0 {
		return fmt.Errorf("%w: window sizes must be positive", ErrInvalidConfig)
	}
	switch c.Sync.CacheBackend {
	case CacheBackendFile, CacheBackendSQLite:
	default:
		return fmt.Errorf("%w: cache_backend must be %q or %q", ErrInvalidConfig, CacheBackendFile, CacheBackendSQLite)
	}

	seen := make(map[string]bool, len(c.Pairs))
	for _, p := range c.Pairs {
		if p.Name == "" || p.SourcePlaylist == "" || p.TargetPlaylist == "" {
			return fmt.Errorf("%w: pairs need name, source_playlist and target_playlist", ErrInvalidConfig)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate pair name %q", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// Pair looks up a configured pair by name.
func (c *Config) Pair(name string) (PairConfig, error) {
	for _, p := range c.Pairs {
		if p.Name == name {
			return p, nil
		}
	}
	return PairConfig{}, fmt.Errorf("%w: %s", ErrUnknownPair, name)
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
