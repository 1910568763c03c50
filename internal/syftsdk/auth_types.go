package syftsdk

// EmailTokenRequest asks the server to issue an email verification token.
type EmailTokenRequest struct {
	Email string `json:"email"`
}

// EmailTokenResponse carries the token directly when the server runs in
// development mode; otherwise the token arrives by email and this is empty.
type EmailTokenResponse struct {
	EmailToken string `json:"email_token,omitempty"`
}

// AuthTokens is what a validated email token is exchanged for.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
