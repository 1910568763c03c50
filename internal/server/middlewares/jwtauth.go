package middlewares

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openmined/syftbox/internal/server/auth"
	"github.com/openmined/syftbox/internal/server/handlers/api"
	"github.com/openmined/syftbox/internal/utils"
)

const (
	bearerPrefix    = "Bearer "
	authHeader      = "Authorization"
	syftEmailHeader = "X-Syft-Email"

	// UserContextKey holds the authenticated email in the gin context.
	UserContextKey = "user"
)

// JWTAuth validates bearer access tokens and checks that the request's email
// header matches the token subject. With auth disabled the email header alone
// identifies the caller.
func JWTAuth(authService *auth.Service) gin.HandlerFunc {
	if !authService.IsEnabled() {
		slog.Warn("auth middleware disabled")
		return func(ctx *gin.Context) {
			email := ctx.GetHeader(syftEmailHeader)
			if !utils.IsValidEmail(email) {
				api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, utils.ErrEmailInvalid)
				return
			}
			ctx.Set(UserContextKey, email)
			ctx.Next()
		}
	}

	return func(ctx *gin.Context) {
		headerValue := ctx.GetHeader(authHeader)
		if !strings.HasPrefix(headerValue, bearerPrefix) {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, auth.ErrInvalidToken)
			return
		}

		tokenString := strings.TrimPrefix(headerValue, bearerPrefix)
		claims, err := authService.ValidateAccessToken(ctx, tokenString)
		if err != nil {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, err)
			return
		}

		// the email header must agree with the token subject
		if email := ctx.GetHeader(syftEmailHeader); email != "" && email != claims.Subject {
			api.AbortWithError(ctx, http.StatusUnauthorized, api.CodeAuthInvalidCredentials, auth.ErrInvalidToken)
			return
		}

		ctx.Set(UserContextKey, claims.Subject)
		ctx.Next()
	}
}

// CurrentUser returns the authenticated email of the request.
func CurrentUser(ctx *gin.Context) string {
	return ctx.GetString(UserContextKey)
}
