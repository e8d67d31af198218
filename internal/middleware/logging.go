package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"github.com/wfunc/geo-guess/internal/logger"
	"github.com/wfunc/geo-guess/internal/metrics"
)

// Logger 记录请求日志和HTTP指标，路径使用路由模板避免指标基数膨胀
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		logger.LogRequest(c.Request.Method, c.Request.URL.Path, status, latency, c.ClientIP(), GetRequestID(c))
		metrics.RecordHTTPRequest(c.Request.Method, c.FullPath(), status, latency)
	}
}

// Recovery 捕获panic并返回500
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.LogPanic(recovered, debug.Stack())
		AbortWithError(c, apperrors.New(apperrors.ErrUnknown))
	})
}
