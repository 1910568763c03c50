package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devService() *Service {
	return NewService(&Config{
		Enabled:           true,
		DevMode:           true,
		TokenIssuer:       "https://test.local",
		EmailTokenSecret:  "email-secret",
		EmailTokenExpiry:  time.Minute,
		AccessTokenSecret: "access-secret",
	})
}

func TestLoginFlow(t *testing.T) {
	svc := devService()
	ctx := context.Background()

	emailToken, err := svc.RequestEmailToken(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, emailToken)

	accessToken, err := svc.ValidateEmailToken(ctx, emailToken)
	require.NoError(t, err)
	require.NotEmpty(t, accessToken)

	claims, err := svc.ValidateAccessToken(ctx, accessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, AccessToken, claims.Type)
	assert.Equal(t, "https://test.local", claims.Issuer)
}

func TestEmailTokenSingleUse(t *testing.T) {
	svc := devService()
	ctx := context.Background()

	emailToken, err := svc.RequestEmailToken(ctx, "alice@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateEmailToken(ctx, emailToken)
	require.NoError(t, err)

	_, err = svc.ValidateEmailToken(ctx, emailToken)
	assert.ErrorIs(t, err, ErrTokenUsed)
}

func TestRequestEmailTokenRejectsBadEmail(t *testing.T) {
	svc := devService()

	_, err := svc.RequestEmailToken(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestTokenTypeConfusion(t *testing.T) {
	svc := devService()
	ctx := context.Background()

	emailToken, err := svc.RequestEmailToken(ctx, "alice@example.com")
	require.NoError(t, err)

	// an email token is not an access token
	_, err = svc.ValidateAccessToken(ctx, emailToken)
	assert.Error(t, err)

	// nor is an access token redeemable as an email token
	accessToken, err := svc.ValidateEmailToken(ctx, emailToken)
	require.NoError(t, err)
	_, err = svc.ValidateEmailToken(ctx, accessToken)
	assert.Error(t, err)
}

func TestValidateRejectsForgedToken(t *testing.T) {
	svc := devService()
	ctx := context.Background()

	forged := NewService(&Config{
		Enabled:           true,
		DevMode:           true,
		TokenIssuer:       "https://test.local",
		EmailTokenSecret:  "wrong-secret",
		EmailTokenExpiry:  time.Minute,
		AccessTokenSecret: "wrong-secret",
	})

	emailToken, err := forged.RequestEmailToken(ctx, "mallory@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateEmailToken(ctx, emailToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateAccessToken(ctx, "garbage")
	assert.Error(t, err)
}

func TestDisabledAuthIsPassthrough(t *testing.T) {
	svc := NewService(&Config{Enabled: false, EmailTokenExpiry: time.Minute})
	ctx := context.Background()

	token, err := svc.RequestEmailToken(ctx, "anyone@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	access, err := svc.ValidateEmailToken(ctx, "whatever")
	require.NoError(t, err)
	assert.Empty(t, access)
}
