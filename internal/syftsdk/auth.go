package syftsdk

import (
	"context"
	"fmt"

	"github.com/imroc/req/v3"
	"github.com/openmined/syftbox/internal/utils"
)

const (
	requestEmailTokenEndpoint  = "/auth/request_email_token"
	validateEmailTokenEndpoint = "/auth/validate_email_token"
)

func authClient(baseURL string) *req.Client {
	return req.C().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetUserAgent(syftBoxUserAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)
}

// RequestEmailToken asks the server to issue a verification token for email.
// In development mode the token comes back in the response body; in
// production it is delivered out of band by email.
func RequestEmailToken(ctx context.Context, baseURL string, email string) (*EmailTokenResponse, error) {
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	var result EmailTokenResponse
	resp, err := authClient(baseURL).R().
		SetContext(ctx).
		SetBody(&EmailTokenRequest{Email: email}).
		SetSuccessResult(&result).
		SetErrorResult(&SyftServerError{}).
		Post(requestEmailTokenEndpoint)

	if err := handleAPIError(resp, err, "request email token"); err != nil {
		return nil, err
	}
	return &result, nil
}

// ValidateEmailToken exchanges an email token for an access token.
func ValidateEmailToken(ctx context.Context, baseURL string, emailToken string) (*AuthTokens, error) {
	if emailToken == "" {
		return nil, fmt.Errorf("validate email token: token required")
	}

	var tokens AuthTokens
	resp, err := authClient(baseURL).R().
		SetContext(ctx).
		SetBearerAuthToken(emailToken).
		SetSuccessResult(&tokens).
		SetErrorResult(&SyftServerError{}).
		Post(validateEmailTokenEndpoint)

	if err := handleAPIError(resp, err, "validate email token"); err != nil {
		return nil, err
	}
	return &tokens, nil
}
