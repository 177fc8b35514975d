package middleware

import (
	"errors"
	"net/http"

	"food-expose-backend/internal/delivery/http/response"
	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"
	"food-expose-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Code >= http.StatusInternalServerError {
				logger.Log.Error("Request failed",
					"path", c.FullPath(), "status", appErr.Code, "error", err,
					"request_id", c.GetString(string(domain.KeyRequestID)))
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Details)
			return
		}

		// Internal details stay in the log.
		logger.Log.Error("Internal server error",
			"path", c.FullPath(), "error", err, "request_id", c.GetString(string(domain.KeyRequestID)))
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", nil)
	}
}
