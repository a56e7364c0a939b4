// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication for the API. Tokens are
// HS256-signed JWTs issued by the hospital's identity layer; the middleware
// verifies the signature and expiry, then stashes the account identity under
// the "userID" Gin context key that the rest of the chain (logging, rate
// limiting, handlers) already reads.
//
// Development mode: when no signing secret is configured, Auth() degrades to
// the X-User-ID demo header so local setups and tests run without an issuer.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload accepted by Auth. Subject carries the account ID.
type Claims struct {
	jwt.RegisteredClaims
	// Role mirrors the account role ("staff" or "admin") for cheap
	// authorization checks without a DB round trip.
	Role string `json:"role,omitempty"`
}

// AuthOptions configures the Auth middleware.
type AuthOptions struct {
	// Secret is the HS256 signing key. Empty enables demo-header mode.
	Secret []byte
	// Required rejects unauthenticated requests with 401 when true. When
	// false, requests without credentials proceed anonymously (handlers fall
	// back to the demo identity).
	Required bool
}

// Auth returns a Gin middleware that authenticates requests via an
// "Authorization: Bearer <jwt>" header.
//
// Behavior:
//   - Valid token: sets "userID" (claims.Subject) and "role" in the context.
//   - Invalid or expired token: 401 with a structured body, always, even when
//     Required is false (a bad credential is never the same as no credential).
//   - Missing header: 401 when Required, otherwise pass-through.
//   - Empty Secret: demo mode; X-User-ID is promoted to the identity.
func Auth(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(opts.Secret) == 0 {
			if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
				c.Set("userID", h)
			}
			c.Next()
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			if opts.Required {
				unauthorized(c, "missing bearer token")
				return
			}
			c.Next()
			return
		}
		const prefix = "Bearer "
		if !strings.HasPrefix(raw, prefix) {
			unauthorized(c, "authorization scheme must be Bearer")
			return
		}

		claims := &Claims{}
		tok, err := jwt.ParseWithClaims(raw[len(prefix):], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return opts.Secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !tok.Valid || claims.Subject == "" {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set("userID", claims.Subject)
		if claims.Role != "" {
			c.Set("role", claims.Role)
		}
		c.Next()
	}
}

// RequireAdmin returns a middleware that rejects requests whose authenticated
// role is not "admin". Place it after Auth on admin-only routes (account
// administration, catalog reload).
//
// In demo mode (no JWT secret) no role is available; the check is skipped so
// local setups keep working.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("role")
		if !ok {
			c.Next()
			return
		}
		if s, _ := v.(string); s != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "forbidden",
				"message":    "admin role required",
			})
			return
		}
		c.Next()
	}
}

// unauthorized aborts with a structured 401 body.
func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
