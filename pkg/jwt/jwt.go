package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wordrush/backend/internal/config"
)

// GenerateToken creates a JWT for a given user, mirroring what the
// external identity service issues. Used by tests and local tooling.
func GenerateToken(userID uint, displayName string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": displayName,
		"exp":  time.Now().Add(time.Hour * 24 * 7).Unix(), // Token expires in 7 days
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}
