// Package auth exposes the email-token login endpoints.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openmined/syftbox/internal/server/auth"
	"github.com/openmined/syftbox/internal/server/handlers/api"
)

type Handler struct {
	auth *auth.Service
}

func New(authService *auth.Service) *Handler {
	return &Handler{auth: authService}
}

func (h *Handler) RequestEmailToken(ctx *gin.Context) {
	var req EmailTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		return
	}

	token, err := h.auth.RequestEmailToken(ctx, req.Email)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidEmail) {
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest, err)
		} else {
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeAuthEmailFailed, err)
		}
		return
	}

	// token is empty unless the server runs in dev mode
	ctx.PureJSON(http.StatusOK, EmailTokenResponse{EmailToken: token})
}

func (h *Handler) ValidateEmailToken(ctx *gin.Context) {
	emailToken := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
	if emailToken == "" {
		api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, auth.ErrInvalidToken)
		return
	}

	accessToken, err := h.auth.ValidateEmailToken(ctx, emailToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenUsed) {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
		} else {
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeAuthTokenFailed, err)
		}
		return
	}

	ctx.PureJSON(http.StatusOK, ValidateEmailTokenResponse{AccessToken: accessToken})
}
