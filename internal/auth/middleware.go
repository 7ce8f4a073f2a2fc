package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"wordrush/backend/internal/config"
)

// AuthMiddleware requires a valid bearer token and sets userID and
// displayName on the context. Token issuance lives in the identity
// service; this service only verifies.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		if !setIdentityFromToken(c, parts[1]) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	}
}

// SSEAuthMiddleware is the AuthMiddleware variant for routes that can't
// always carry a header: EventSource and the page-teardown beacon pass
// the token as a query param instead. A Bearer header still works.
func SSEAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			parts := strings.Split(c.GetHeader("Authorization"), " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}
		if !setIdentityFromToken(c, token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	}
}

func setIdentityFromToken(c *gin.Context, tokenString string) bool {
	token, err := gojwt.Parse(tokenString, func(token *gojwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return false
	}
	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return false
	}

	c.Set("userID", uint(userIDFloat))
	if name, ok := claims["name"].(string); ok {
		c.Set("displayName", name)
	}
	return true
}
