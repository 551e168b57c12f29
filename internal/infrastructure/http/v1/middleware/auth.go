package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"storeledger/internal/core/apperror"
	appctx "storeledger/internal/core/context"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, *apperror.AppError) {
	if header == "" {
		return "", apperror.NewUnauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", apperror.NewUnauthorized("invalid authorization header format")
	}
	return token, nil
}

// Auth validates the bearer token and puts the caller into the request
// context. Every ledger call is scoped to the store named in the token,
// never to one taken from the request.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, appErr := bearerToken(c.GetHeader("Authorization"))
		if appErr != nil {
			_ = c.Error(appErr)
			c.Abort()
			return
		}

		user, err := validator.ValidateToken(token)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token").WithCause(err))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		c.Set("user_id", user.UserID)
		c.Set("store_id", user.StoreID)

		c.Next()
	}
}
