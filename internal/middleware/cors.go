package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, POST, PATCH, DELETE, OPTIONS"
	corsAllowHeaders = "authorization, x-client-info, apikey, content-type"
	corsMaxAge       = "3600"
)

// CORS lets the site and the admin panel call the API from their own
// origins. "*" in allowedOrigins admits any origin.
type CORS struct {
	allowed  map[string]struct{}
	allowAll bool
}

func NewCORS(allowedOrigins []string) *CORS {
	c := &CORS{allowed: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			c.allowAll = true
			continue
		}
		if origin != "" {
			c.allowed[origin] = struct{}{}
		}
	}
	return c
}

func (m *CORS) originAllowed(origin string) bool {
	if m.allowAll {
		return true
	}
	_, ok := m.allowed[origin]
	return ok
}

// Handler sets the Access-Control headers and answers preflights with 204.
// It must run before routing-specific middleware so that OPTIONS requests
// for any path are answered.
func (m *CORS) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && m.originAllowed(origin) {
			if m.allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Max-Age", corsMaxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
