package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/minutes/version"
)

// Version reports the build that is running.
func Version() gin.HandlerFunc {
	info := version.Get()
	return func(c *gin.Context) { c.JSON(http.StatusOK, info) }
}
