package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses the limiter for loopback and RFC 1918 clients.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}

// AllowPaths bypasses the limiter for the given exact request paths, e.g. /healthz.
func AllowPaths(paths ...string) AllowFunc {
	return func(c *gin.Context) bool {
		for _, p := range paths {
			if strings.EqualFold(c.Request.URL.Path, p) {
				return true
			}
		}
		return false
	}
}
