// Package middleware provides HTTP middleware for the ledger API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"storeledger/internal/core/apperror"
	appctx "storeledger/internal/core/context"
)

// RequirePermission rejects callers whose token does not grant permission.
// Admin tokens pass every check.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var err *apperror.AppError
		switch {
		case appctx.GetUser(ctx) == nil:
			err = apperror.NewUnauthorized("authentication required")
		case !appctx.HasPermission(ctx, permission):
			err = apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permission", permission)
		}
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Next()
	}
}
