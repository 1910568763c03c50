package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/openmined/syftbox/internal/utils"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".syftbox", "config.json")
	DefaultDataDir    = filepath.Join(home, "SyftBox")
	DefaultServerURL  = "https://syftbox.openmined.org"
)

var (
	ErrNoDataDir   = errors.New("data_dir missing")
	ErrNoServerURL = errors.New("server_url missing")
)

// Config is the persisted client configuration at ~/.syftbox/config.json.
type Config struct {
	DataDir      string `json:"data_dir"`
	Email        string `json:"email"`
	ServerURL    string `json:"server_url"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// Path is where this config was loaded from, not persisted.
	Path string `json:"-"`
}

func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrNoDataDir
	}
	if c.ServerURL == "" {
		return ErrNoServerURL
	}
	if u, err := url.Parse(c.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server_url %q", c.ServerURL)
	}
	if err := utils.ValidateEmail(c.Email); err != nil {
		return err
	}

	resolved, err := utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data_dir: %w", err)
	}
	c.DataDir = resolved
	return nil
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	c.Path = path
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
