package middleware

import (
	"github.com/Jacob-Cardoso/agent-pay-fe/internal/reqctx"
	"github.com/gin-gonic/gin"
)

const (
	headerRequestID    = "X-Request-ID"
	maxRequestIDLength = 128
)

// RequestID puts a correlation id on the request context and echoes it in
// the response. The context log handler adds it to every record emitted
// while serving the request, next to the subject id the session middleware
// attaches later.
//
// A caller-supplied id is kept only if it is short printable ASCII without
// spaces. Anything else is replaced with a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if !usableRequestID(id) {
			id = reqctx.NewRequestID()
		}

		c.Request = c.Request.WithContext(reqctx.WithRequestID(c.Request.Context(), id))
		c.Header(headerRequestID, id)
		c.Next()
	}
}

func usableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
