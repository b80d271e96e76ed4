package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ashwinyue/next-ai/internal/config"
)

var (
	jwtSecretOnce sync.Once
	jwtSecret     string
)

// jwtSecretFor resolves the signing secret with the same precedence as the
// teacher's getJwtSecret: explicit config, then JWT_SECRET, then a
// process-lifetime random secret so a fresh deployment still boots.
func jwtSecretFor(cfg *config.Config) string {
	if cfg != nil && cfg.App.JWTSecret != "" {
		return cfg.App.JWTSecret
	}
	jwtSecretOnce.Do(func() {
		if envSecret := strings.TrimSpace(os.Getenv("JWT_SECRET")); envSecret != "" {
			jwtSecret = envSecret
			return
		}
		randomBytes := make([]byte, 32)
		_, _ = rand.Read(randomBytes)
		jwtSecret = base64.StdEncoding.EncodeToString(randomBytes)
	})
	return jwtSecret
}

// RequireAuth resolves the current user id from either a Bearer JWT with a
// "user_id" claim, or a plain X-User-ID header set by an external
// collaborator. Absence of either yields 401 before any handler runs.
func RequireAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := currentUserID(c, cfg); userID != "" {
			c.Set("user_id", userID)
			c.Next()
			return
		}

		c.JSON(401, gin.H{"code": -1, "message": "unauthenticated"})
		c.Abort()
	}
}

func currentUserID(c *gin.Context, cfg *config.Config) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if userID, ok := userIDFromJWT(tokenString, cfg); ok {
			return userID
		}
	}

	return c.GetHeader("X-User-ID")
}

func userIDFromJWT(tokenString string, cfg *config.Config) (string, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecretFor(cfg)), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// GetUserID reads the user id RequireAuth placed in the request context.
func GetUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}
