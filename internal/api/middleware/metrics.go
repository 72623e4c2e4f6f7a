package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/metrics"
)

func HTTPMetrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		metrics.RecordHTTP(ctx.FullPath(), ctx.Request.Method, ctx.Writer.Status(), start)
	}
}
