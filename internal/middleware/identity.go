package middleware

import (
	"net/url"

	"github.com/gin-gonic/gin"
)

const (
	UserHeader = "User"
	callerKey  = "caller"
)

// Identity reads the caller's declared name from the User header. Clients
// percent-encode the header so names outside ASCII survive transport. A '+'
// is part of the name, and a header that is not valid percent-encoding is
// taken verbatim.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserHeader)
		if raw != "" {
			name, err := url.PathUnescape(raw)
			if err != nil {
				name = raw
			}
			c.Set(callerKey, name)
		}
		c.Next()
	}
}

// Caller returns the identity set by Identity, or "" when the header was absent.
func Caller(c *gin.Context) string {
	return c.GetString(callerKey)
}
