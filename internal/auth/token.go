// Package auth issues and verifies the signed bearer tokens the API uses
// to identify users
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure
var ErrInvalidToken = errors.New("invalid token")

// TokenLifetime is how long an issued token stays valid
const TokenLifetime = 30 * 24 * time.Hour

// ContextUserKey is the gin context key holding the authenticated user id
const ContextUserKey = "user_id"

// Manager signs and verifies tokens with a shared HMAC secret
type Manager struct {
	secret []byte
}

// NewManager creates a token manager with the given secret
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// NewManagerFromEnv reads JWT_SECRET, falling back to a development
// default
func NewManagerFromEnv() *Manager {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	return NewManager(secret)
}

// IssueToken creates a signed token for a user
func (m *Manager) IssueToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks a token's signature and expiry and returns the user
// id it was issued for
func (m *Manager) VerifyToken(tokenString string) (uuid.UUID, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return userID, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated user id on the context
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		userID, err := m.VerifyToken(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// UserID pulls the authenticated user id from a gin context
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
