package syftsdk

import (
	"errors"
	"net/url"
	"time"

	"github.com/openmined/syftbox/internal/utils"
)

const defaultTimeout = 60 * time.Second

var (
	ErrNoServerURL  = errors.New("sdk: server url missing")
	ErrBadServerURL = errors.New("sdk: server url invalid")
	ErrInvalidEmail = errors.New("sdk: invalid email")
)

// Config carries everything the SDK needs to talk to one server as one user.
type Config struct {
	BaseURL     string
	Email       string
	AccessToken string
	Timeout     time.Duration
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return ErrBadServerURL
	}
	if !utils.IsValidEmail(c.Email) {
		return ErrInvalidEmail
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}
