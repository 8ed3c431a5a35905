package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// quietRoutes are skipped by the request logger unless they fail: the
// progress UI polls batch status every couple of seconds and orchestrators
// hit the health endpoints constantly.
var quietRoutes = map[string]bool{
	"/healthz":            true,
	"/readyz":             true,
	"/api/v1/batches/:id": true,
}

// RequestID tags the request with an X-Request-ID, reusing one supplied by
// the caller. Recognition callbacks arrive without one; the generated id is
// what ties a callback delivery to its log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// Logger writes one line per request with the route pattern, status, latency
// and response size.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		if quietRoutes[route] && status < http.StatusBadRequest {
			return
		}

		log.Printf("http: [%s] %s %s -> %d (%s, %d bytes)",
			c.GetString("request_id"), c.Request.Method, route,
			status, time.Since(start).Round(time.Millisecond), c.Writer.Size())
	}
}

// Recovery turns a handler panic into a 500 response and logs the stack with
// the request id, so one bad callback payload cannot take the server down
// mid-batch.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("http: [%s] panic handling %s %s: %v\n%s",
					c.GetString("request_id"), c.Request.Method, c.Request.URL.Path,
					r, debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": "INTERNAL_ERROR", "message": "internal server error"},
				})
			}
		}()
		c.Next()
	}
}
