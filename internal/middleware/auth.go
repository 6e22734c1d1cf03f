package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"student-inout-api/internal/response"
)

// Context keys set by Auth
const (
	OperatorIDKey = "operator_id"
	JWTTokenKey   = "jwtToken"
)

// Auth returns a middleware that validates HMAC-signed operator JWTs.
// An empty secret rejects every request.
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtSecret == "" {
			abortUnauthorized(c, "Authentication is not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}
		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		// Support multiple claim formats
		var operatorID string
		if uid, ok := claims["user_id"].(string); ok {
			operatorID = uid
		} else if sub, ok := claims["sub"].(string); ok {
			operatorID = sub
		} else if uid, ok := claims["uid"].(string); ok {
			operatorID = uid
		}
		if operatorID == "" {
			abortUnauthorized(c, "Operator ID not found in token")
			return
		}

		c.Set(OperatorIDKey, operatorID)
		c.Set(JWTTokenKey, tokenString)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, message)
	c.Abort()
}
