package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const UserIDKey = "user_id"

var errNoUserClaim = errors.New("token has no user id")

// Auth requires an HS256 bearer token and stores the caller's user id under
// UserIDKey. The id comes from the "id" claim, falling back to "sub".
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, tokenStr, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(tokenStr) == "" {
			abortUnauthorized(c, "Token is missing")
			return
		}

		userID, err := ParseToken(secret, strings.TrimSpace(tokenStr))
		if err != nil {
			abortUnauthorized(c, "Token is invalid")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func ParseToken(secret []byte, tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	if id, ok := claims["id"].(string); ok && id != "" {
		return id, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", errNoUserClaim
}

// IssueToken mints a bearer token for local runs and tests.
func IssueToken(secret []byte, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    userID,
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
