package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// The API is JSON over GET and POST without authentication, so only the
// content type header needs advertising.
const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Content-Type"
)

// CORS allows browser calls from the configured origins; an empty allowlist
// opens the API to every origin.
func CORS(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowlist))
	for _, origin := range allowlist {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}
	allowAll := len(allowed) == 0
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			writeCORSHeaders(c, "*", false)
		} else if origin != "" {
			if _, ok := allowed[origin]; ok {
				writeCORSHeaders(c, origin, true)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func writeCORSHeaders(c *gin.Context, origin string, vary bool) {
	header := c.Writer.Header()
	header.Set("Access-Control-Allow-Origin", origin)
	header.Set("Access-Control-Allow-Methods", corsAllowMethods)
	header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	if vary {
		header.Set("Vary", "Origin")
	}
}
