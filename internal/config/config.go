// Package config handles the XDG configuration directory, the config file and stored credentials.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "todoctl"

	// ConfigFile is the optional settings filename.
	ConfigFile = "config.yaml"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// APIURLEnv overrides the API base URL from the config file.
	APIURLEnv = "TODOCTL_API_URL"

	// DefaultAPIURL is the collaborator service base path.
	DefaultAPIURL = "http://localhost:8000/api"

	// DefaultTimeout bounds each API call.
	DefaultTimeout = 5 * time.Second
)

var (
	// ErrInvalidToken reports an unreadable or malformed token file.
	ErrInvalidToken = errors.New("invalid token.json")

	// ErrInvalidAPIURL reports an API base URL that is not absolute.
	ErrInvalidAPIURL = errors.New("invalid api url")
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// APIURL is the REST service base path.
	APIURL string

	// Timeout bounds each API call.
	Timeout time.Duration

	// FetchRetries is how many times a failed list fetch is retried.
	FetchRetries int

	// Location is used to read deadlines typed without a zone.
	Location *time.Location
}

// fileSettings mirrors config.yaml.
type fileSettings struct {
	APIURL       string `yaml:"api_url"`
	Timeout      string `yaml:"timeout"`
	FetchRetries int    `yaml:"fetch_retries"`
	Timezone     string `yaml:"timezone"`
}

// New creates a Config with the default or specified config directory,
// then applies config.yaml (if present) and environment overrides.
// If configDir is empty, uses XDG_CONFIG_HOME/todoctl or $HOME/.config/todoctl.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:      dir,
		APIURL:   DefaultAPIURL,
		Timeout:  DefaultTimeout,
		Location: time.Local,
	}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	if u := os.Getenv(APIURLEnv); u != "" {
		cfg.APIURL = u
	}
	return cfg, nil
}

func (c *Config) load() error {
	data, err := os.ReadFile(c.ConfigPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	if fs.APIURL != "" {
		c.APIURL = fs.APIURL
	}
	if fs.Timeout != "" {
		d, err := time.ParseDuration(fs.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: timeout %q", ConfigFile, fs.Timeout)
		}
		c.Timeout = d
	}
	if fs.FetchRetries < 0 {
		return fmt.Errorf("invalid %s: fetch_retries must not be negative", ConfigFile)
	}
	c.FetchRetries = fs.FetchRetries
	if fs.Timezone != "" {
		loc, err := time.LoadLocation(fs.Timezone)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
		c.Location = loc
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// LoadToken reads the stored bearer token.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: missing access_token", ErrInvalidToken)
	}
	return &tok, nil
}

// SaveToken writes tok to the token file with mode 0600.
func (c *Config) SaveToken(tok *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
