package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/minutes/util"
)

const defaultMaxBodySize = 64 * 1024

// BodyLimit caps request bodies at maxSize ("64KB", "1MB"). Reads past the
// limit fail, which the JSON binding reports as invalid input.
func BodyLimit(maxSize string) gin.HandlerFunc {
	limit := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
