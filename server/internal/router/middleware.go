package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const bytesPerMB = 1 << 20

// BodyLimit caps request bodies. Handlers see a *http.MaxBytesError from
// the JSON decoder once the limit is crossed.
func BodyLimit(maxMB int) gin.HandlerFunc {
	limit := int64(maxMB) * bytesPerMB
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
