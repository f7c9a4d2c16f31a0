package httpx

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkrou/kflow/pkg/ctxmeta"
	"github.com/mkrou/kflow/runner"
)

// RequestLogger logs one line per completed HTTP request, skipping
// the noisy /metrics and /healthz endpoints.
func RequestLogger(log runner.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		switch c.FullPath() {
		case "/metrics", "/healthz":
			return
		}

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		rid, _ := ctxmeta.RequestIDFromContext(c.Request.Context())
		tr, _ := ctxmeta.TraceIDFromContext(c.Request.Context())
		sp, _ := ctxmeta.SpanIDFromContext(c.Request.Context())

		log.Infof(
			c.Request.Context(),
			"request id=%s trace=%s span=%s method=%s path=%s status=%d ip=%s duration=%s size=%d",
			rid, tr, sp,
			c.Request.Method,
			path,
			c.Writer.Status(),
			c.ClientIP(),
			time.Since(start),
			c.Writer.Size(),
		)
	}
}
