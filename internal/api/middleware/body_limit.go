package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/med_image_server/internal/pkg/response"
)

// BodyLimit 限制请求体大小，超过 maxBytes 返回 413
// 声明了 Content-Length 的请求直接拒绝，其余在读取时截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.TooLarge(c, "")
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
