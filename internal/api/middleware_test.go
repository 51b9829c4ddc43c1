package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"taskboard/internal/api"
	"taskboard/internal/routes"
)

func newGuardedApp() *fiber.App {
	app := fiber.New()
	app.Use(api.RouteGuard())

	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("home") })
	app.Get("/sign-in", func(c *fiber.Ctx) error { return c.SendString("sign in") })
	app.Get("/overview", func(c *fiber.Ctx) error { return c.SendString("overview") })
	app.Post("/api/webhooks/clerk", func(c *fiber.Ctx) error { return c.SendString("webhook") })
	app.Get("/api/tasks", func(c *fiber.Ctx) error { return c.SendString("tasks") })
	return app
}

func sessionToken(t *testing.T, clerkID string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": clerkID,
		"exp": time.Now().Add(time.Minute * 15).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-session-secret"))
	require.NoError(t, err)
	return token
}

func TestRouteGuard_PublicPassesThrough(t *testing.T) {
	app := newGuardedApp()

	for _, path := range []string{"/", "/sign-in"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)
	}
}

func TestRouteGuard_WebhookPassesWithoutSession(t *testing.T) {
	app := newGuardedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/webhooks/clerk", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouteGuard_ProtectedPageRedirects(t *testing.T) {
	app := newGuardedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/overview", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, routes.SignInURL, resp.Header.Get("Location"))
}

func TestRouteGuard_ProtectedAPIUnauthorized(t *testing.T) {
	app := newGuardedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/tasks", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouteGuard_ValidSessionPasses(t *testing.T) {
	t.Setenv("SESSION_JWT_SECRET", "test-session-secret")
	app := newGuardedApp()

	req := httptest.NewRequest(http.MethodGet, "/overview", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_abc"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware_RejectsBadTokens(t *testing.T) {
	t.Setenv("SESSION_JWT_SECRET", "test-session-secret")

	app := fiber.New()
	app.Use(api.AuthMiddleware())
	app.Get("/api/user/me", func(c *fiber.Ctx) error { return c.SendString("me") })

	// No header at all.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/user/me", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Malformed header.
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong signing key.
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_abc",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid token.
	req = httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, "user_abc"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
