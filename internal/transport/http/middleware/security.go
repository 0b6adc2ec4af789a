package middleware

import "github.com/gin-gonic/gin"

// Security sets response headers for a JSON API that carries session
// cookies. Nothing is cacheable and nothing may be framed. HSTS is only sent
// when the service runs behind TLS, which is also when cookies are marked
// Secure.
func Security(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		if hsts {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		c.Next()
	}
}
