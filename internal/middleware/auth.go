package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/moveon/moveon-backend-go/pkg/response"
)

// TokenTTL bounds how long an issued token stays valid
const TokenTTL = 24 * time.Hour

// ContextTelegramID is the gin context key holding the authenticated identity
const ContextTelegramID = "telegram_id"

// Claims binds a Telegram identity to a signed token
type Claims struct {
	TelegramID int64 `json:"telegram_id"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for the Telegram user
func IssueToken(secret string, telegramID int64) (string, error) {
	claims := Claims{
		TelegramID: telegramID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the embedded Telegram id
func ParseToken(secret, tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}
	return claims.TelegramID, nil
}

// Auth middleware requires a valid bearer token and stores the Telegram id in
// the request context
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			response.Unauthorized(c, "Missing bearer token")
			c.Abort()
			return
		}

		telegramID, err := ParseToken(secret, tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(ContextTelegramID, telegramID)
		c.Next()
	}
}
