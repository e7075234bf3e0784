package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func newAuthedApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", RequireAuth(testSecret), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string))
	})
	return app
}

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestRequireAuth(t *testing.T) {
	app := newAuthedApp()

	tests := []struct {
		name       string
		header     string
		query      string
		wantStatus int
		wantBody   string
	}{
		{
			"valid token",
			"Bearer " + signToken(t, testSecret, "user-1", time.Now().Add(time.Hour)),
			"",
			fiber.StatusOK,
			"user-1",
		},
		{
			"missing header",
			"",
			"",
			fiber.StatusUnauthorized,
			"",
		},
		{
			"not a bearer token",
			"Basic dXNlcjpwYXNz",
			"",
			fiber.StatusUnauthorized,
			"",
		},
		{
			"garbage token",
			"Bearer not.a.jwt",
			"",
			fiber.StatusUnauthorized,
			"",
		},
		{
			"wrong secret",
			"Bearer " + signToken(t, "other-secret", "user-1", time.Now().Add(time.Hour)),
			"",
			fiber.StatusUnauthorized,
			"",
		},
		{
			"expired token",
			"Bearer " + signToken(t, testSecret, "user-1", time.Now().Add(-time.Hour)),
			"",
			fiber.StatusUnauthorized,
			"",
		},
		{
			"no subject",
			"Bearer " + signToken(t, testSecret, "", time.Now().Add(time.Hour)),
			"",
			fiber.StatusUnauthorized,
			"",
		},
		{
			// websocket handshakes carry the token as a query parameter
			"valid token via query",
			"",
			signToken(t, testSecret, "user-2", time.Now().Add(time.Hour)),
			fiber.StatusOK,
			"user-2",
		},
		{
			"garbage token via query",
			"",
			"not.a.jwt",
			fiber.StatusUnauthorized,
			"",
		},
		{
			"header wins over query",
			"Bearer " + signToken(t, testSecret, "user-1", time.Now().Add(time.Hour)),
			signToken(t, "other-secret", "user-2", time.Now().Add(time.Hour)),
			fiber.StatusOK,
			"user-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/whoami"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest("GET", target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.wantBody {
					t.Fatalf("body %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}
