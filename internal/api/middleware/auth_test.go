package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/rasmith-dev/propadmin/internal/core/domain"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func runAuth(t *testing.T, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, c, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signed(t, "secret", jwt.MapClaims{
		"sub":  "alice@example.com",
		"role": "ROLE_MANAGER",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	rec, c, called := runAuth(t, "Bearer "+token)

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c.Get(ContextEmail) != "alice@example.com" {
		t.Fatalf("email not set")
	}
	if RoleFrom(c) != domain.RoleManager {
		t.Fatalf("role not set, got %q", RoleFrom(c))
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"garbage token":  "Bearer not-a-token",
		"wrong secret": "Bearer " + signed(t, "other", jwt.MapClaims{
			"sub": "alice@example.com", "role": "OWNER",
		}),
		"expired": "Bearer " + signed(t, "secret", jwt.MapClaims{
			"sub": "alice@example.com", "role": "OWNER", "exp": time.Now().Add(-time.Minute).Unix(),
		}),
		"unknown role": "Bearer " + signed(t, "secret", jwt.MapClaims{
			"sub": "alice@example.com", "role": "guest",
		}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _, called := runAuth(t, header)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
