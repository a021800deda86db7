package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware logs HTTP requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.Query()
		if query.Has("token") {
			query.Set("token", "REDACTED")
		}
		raw := query.Encode()

		// Process request
		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		// Set by Auth; "-" for anonymous routes
		user := c.GetString(UserIDKey)
		if user == "" {
			user = "-"
		}

		log.Printf("[%s] %s %s user=%s %d %v %s",
			c.Request.Method,
			path,
			c.ClientIP(),
			user,
			c.Writer.Status(),
			time.Since(start),
			c.Errors.String(),
		)
	}
}
