// Package middleware 提供 HTTP 中间件
package middleware

import (
	"fmt"
	"runtime/debug"

	"worldforge/internal/interfaces/http/dto"
	"worldforge/pkg/errors"
	"worldforge/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery Panic 恢复中间件
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", rec),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				// 响应已经开始写出（例如 SSE）时只能中断连接
				if c.Writer.Written() {
					c.Abort()
					return
				}
				dto.AppError(c, errors.ErrInternalError)
				c.Abort()
			}
		}()

		c.Next()
	}
}
