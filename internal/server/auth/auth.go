// Package auth issues and validates the server's tokens. Login is a two-step
// email verification: the user requests an email token, receives it by mail
// (or inline in dev mode) and trades it for a long-lived access token.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/openmined/syftbox/internal/server/email"
	"github.com/openmined/syftbox/internal/utils"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenUsed    = errors.New("email token already used")
)

type Service struct {
	config        *Config
	usedTokens    *expirable.LRU[string, struct{}]
	emailTemplate *template.Template
}

func NewService(config *Config) *Service {
	return &Service{
		config: config,
		// email tokens are single use; jtis live here until they expire
		usedTokens:    expirable.NewLRU[string, struct{}](0, nil, config.EmailTokenExpiry),
		emailTemplate: template.Must(template.New("emailTemplate").Parse(emailTemplate)),
	}
}

func (s *Service) IsEnabled() bool {
	return s.config.Enabled
}

// RequestEmailToken issues a fresh email token for userEmail and delivers it
// by mail. In dev mode the token is returned to the caller instead.
func (s *Service) RequestEmailToken(ctx context.Context, userEmail string) (string, error) {
	if !s.IsEnabled() {
		return "", nil
	}
	if !utils.IsValidEmail(userEmail) {
		return "", ErrInvalidEmail
	}

	token, err := s.newToken(userEmail, EmailToken, s.config.EmailTokenSecret, s.config.EmailTokenExpiry)
	if err != nil {
		return "", fmt.Errorf("generate email token: %w", err)
	}

	if s.config.DevMode {
		return token, nil
	}

	if err := s.sendTokenEmail(ctx, userEmail, token); err != nil {
		return "", fmt.Errorf("send email token: %w", err)
	}
	return "", nil
}

// ValidateEmailToken checks an email token and exchanges it for an access
// token. Each email token can be redeemed once.
func (s *Service) ValidateEmailToken(ctx context.Context, emailToken string) (string, error) {
	if !s.IsEnabled() {
		return "", nil
	}

	claims, err := ParseClaims(emailToken, s.config.EmailTokenSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Type != EmailToken {
		return "", fmt.Errorf("%w: wrong token type %q", ErrInvalidToken, claims.Type)
	}

	if _, used := s.usedTokens.Get(claims.ID); used {
		return "", ErrTokenUsed
	}
	s.usedTokens.Add(claims.ID, struct{}{})

	accessToken, err := s.newToken(claims.Subject, AccessToken, s.config.AccessTokenSecret, s.config.AccessTokenExpiry)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// ValidateAccessToken resolves a bearer token to its claims.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := ParseClaims(accessToken, s.config.AccessTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Type != AccessToken {
		return nil, fmt.Errorf("%w: wrong token type %q", ErrInvalidToken, claims.Type)
	}
	return claims, nil
}

func (s *Service) newToken(subject string, tokenType AuthTokenType, secret string, expiry time.Duration) (string, error) {
	var expiryTime *jwt.NumericDate
	if expiry > 0 {
		expiryTime = jwt.NewNumericDate(time.Now().Add(expiry))
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			Issuer:    s.config.TokenIssuer,
			ExpiresAt: expiryTime,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Type: tokenType,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func (s *Service) sendTokenEmail(ctx context.Context, to, token string) error {
	var buf bytes.Buffer
	if err := s.emailTemplate.Execute(&buf, map[string]any{
		"Email":        to,
		"Token":        token,
		"Year":         time.Now().Year(),
		"ValidityMins": s.config.EmailTokenExpiry.Minutes(),
	}); err != nil {
		return err
	}

	return email.Send(ctx, &email.EmailInfo{
		FromName:  "SyftBox",
		FromEmail: s.config.EmailAddr,
		Subject:   "SyftBox Login Token",
		ToEmail:   to,
		HTMLBody:  buf.String(),
	})
}
