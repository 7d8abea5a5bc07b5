package middleware

import (
	"net/http"
	"strings"

	"backoffice/internal/access"
	"backoffice/internal/auth"
	"backoffice/internal/domain"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// SessionRequired validates the session token and stores the session in context.
func SessionRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		s, err := auth.ParseSession(secret, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(sessionKey, s)
		c.Next()
	}
}

// GetSession returns the session set by SessionRequired, or nil.
func GetSession(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*auth.Session)
	return s
}

func roleOf(c *gin.Context) domain.Role {
	if s := GetSession(c); s != nil {
		return s.Role
	}
	return ""
}

func denied(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
}

// RequireSection lets the request through only if the agent's role may open section.
func RequireSection(section domain.Section) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !access.CanAccessSection(roleOf(c), section) {
			denied(c)
			return
		}
		c.Next()
	}
}

// RequireSectionParam is RequireSection with the section taken from a path
// parameter. Unknown sections are denied.
func RequireSectionParam(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		section, ok := domain.ParseSection(c.Param(param))
		if !ok || !access.CanAccessSection(roleOf(c), section) {
			denied(c)
			return
		}
		c.Next()
	}
}

// RequireAnySection lets the request through if the agent's role may open at
// least one section. Every section lists every request type, so this is the
// gate for reading a single request.
func RequireAnySection() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(access.SectionsFor(roleOf(c))) == 0 {
			denied(c)
			return
		}
		c.Next()
	}
}

// RequireRole checks that the agent has one of the allowed roles.
func RequireRole(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := roleOf(c)
		for _, a := range allowed {
			if r == a {
				c.Next()
				return
			}
		}
		denied(c)
	}
}
