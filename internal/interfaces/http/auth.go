package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

// Authenticator verifies HS256 bearer tokens. The sub claim is the id of
// the user who owns the invoices being accessed.
type Authenticator struct {
	secret []byte
	leeway time.Duration
}

// NewAuthenticator creates an authenticator for the shared secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		leeway: 30 * time.Second,
	}
}

// IssueToken signs a token for userID valid for ttl
func (a *Authenticator) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Require rejects requests without a valid bearer token and stores the
// token subject for handlers
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				return a.secret, nil
			},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(a.leeway),
		)
		if err != nil || !token.Valid {
			unauthorized(c, "invalid token")
			return
		}
		if claims.Subject == "" {
			unauthorized(c, "token has no subject")
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

func unauthorized(c *gin.Context, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(401, Response{Success: false, Error: desc, Code: "UNAUTHORIZED"})
}

func userIDFrom(c *gin.Context) string {
	return c.GetString(userIDKey)
}
