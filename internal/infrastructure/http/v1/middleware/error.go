package middleware

import (
	"github.com/gin-gonic/gin"

	"storeledger/internal/core/apperror"
	"storeledger/pkg/logger"
)

// ErrorHandler renders the last error registered with c.Error as an
// apperror.Problem. Server-side causes are logged, never sent.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		ctx := c.Request.Context()

		status, problem := apperror.ToProblem(err)
		appErr, isApp := apperror.AsAppError(err)
		switch {
		case !isApp:
			logger.Error(ctx, "unhandled error", "error", err)
			problem.Details = map[string]any{"request_id": c.GetString("request_id")}
		case appErr.ServerSide() || appErr.Err != nil:
			logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}

		c.JSON(status, problem)
	}
}
