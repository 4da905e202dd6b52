package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aml-logistics/aml-api/internal/auth"
	"github.com/aml-logistics/aml-api/internal/http/respcode"
)

// principalKey is the Gin context key under which the Principal is stored.
const principalKey = "principal"

// RequireAuth verifies the bearer token and attaches the Principal to the
// request context. Missing and invalid tokens both yield 401; only the
// message differs.
//
// The 401 body is the standard envelope with the auth module code so
// unauthenticated responses look the same on every protected route.
func RequireAuth(tokens *auth.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			unauthorized(c, "Missing bearer token")
			return
		}

		p, err := tokens.Verify(raw)
		if err != nil {
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated caller attached by RequireAuth.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":         false,
		"responseCode":    respcode.Code(http.StatusUnauthorized, respcode.ModuleAuth, respcode.SpecificUnauthorized),
		"responseMessage": msg,
	})
}
