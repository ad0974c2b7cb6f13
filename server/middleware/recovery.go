package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/logger"
)

// Recovery returns a Gin middleware that recovers from panics, logs the stack
// and answers with an INTERNAL_ERROR body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.WithContext(c.Request.Context()).Error("Panic recovered", logger.Fields(
					logger.FieldError, fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				))
				appErr := apperrors.Internal(fmt.Errorf("panic: %v", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.Response(RequestIDFrom(c)))
			}
		}()
		c.Next()
	}
}
