package auth

import (
	"fmt"
	"time"
)

type Config struct {
	Enabled           bool          `mapstructure:"enabled"`
	DevMode           bool          `mapstructure:"dev_mode"`
	TokenIssuer       string        `mapstructure:"token_issuer"`
	EmailTokenSecret  string        `mapstructure:"email_token_secret"`
	EmailTokenExpiry  time.Duration `mapstructure:"email_token_expiry"`
	AccessTokenSecret string        `mapstructure:"access_token_secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"`
	EmailAddr         string        `mapstructure:"email_addr"`
}

func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.TokenIssuer == "" {
		return fmt.Errorf("auth `token_issuer` is required when auth is enabled")
	}
	if c.EmailTokenSecret == "" {
		return fmt.Errorf("auth `email_token_secret` is required when auth is enabled")
	}
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("auth `access_token_secret` is required when auth is enabled")
	}
	if c.EmailTokenExpiry <= 0 {
		c.EmailTokenExpiry = 15 * time.Minute
	}
	return nil
}
