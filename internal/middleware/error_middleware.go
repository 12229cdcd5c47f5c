package middleware

import (
	"net/http"

	"upload-registry/internal/services"
	"upload-registry/internal/transport/httpdto"
	"upload-registry/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors attached with c.Error when the handler did not
// write a response itself.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		if l != nil {
			l.WithContext(c.Request.Context()).Errorf("request error: %s", err.Error())
		}
		status, code := services.HTTPStatus(err)
		message := err.Error()
		if status >= http.StatusInternalServerError {
			message = "internal error"
		}
		c.JSON(status, httpdto.NewErrorResponse(message, code))
	}
}
