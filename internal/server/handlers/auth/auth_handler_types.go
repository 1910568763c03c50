package auth

type EmailTokenRequest struct {
	Email string `json:"email" binding:"required"`
}

type EmailTokenResponse struct {
	EmailToken string `json:"email_token,omitempty"`
}

type ValidateEmailTokenResponse struct {
	AccessToken string `json:"access_token"`
}
