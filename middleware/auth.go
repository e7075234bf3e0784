package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RequireAuth validates the bearer token and stores the caller's user id
// in c.Locals("user_id"). Every protected handler reads ownership from
// there, never from the request body. Browsers cannot set headers on a
// websocket handshake, so a token query parameter is accepted when the
// Authorization header is absent.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tokenStr string
		header := c.Get("Authorization")
		if header != "" {
			var ok bool
			tokenStr, ok = strings.CutPrefix(header, "Bearer ")
			if !ok {
				return unauthorized(c, "authorization header must be a bearer token")
			}
		} else if tokenStr = c.Query("token"); tokenStr == "" {
			return unauthorized(c, "missing authorization header")
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return unauthorized(c, "invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "invalid token claims")
		}
		userID, err := claims.GetSubject()
		if err != nil || userID == "" {
			return unauthorized(c, "token has no subject")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
