package api

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"taskboard/internal/routes"
)

var (
	httpRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "route_class", "status_code"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of http request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "route_class", "status_code"},
	)
)

func validateSessionToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(os.Getenv("SESSION_JWT_SECRET")), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("missing authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

// AuthMiddleware verifies the provider-issued session token and stores its
// claims for the handlers downstream. Tokens are only ever verified here,
// never issued; issuance belongs to the identity provider.
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		claims, err := validateSessionToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token has expired"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		if _, ok := claims["sub"].(string); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User ID not found in token claims"})
		}

		c.Locals("sessionClaims", claims)

		return c.Next()
	}
}

func GetClerkIDFromClaims(c *fiber.Ctx) (string, error) {
	claims, ok := c.Locals("sessionClaims").(jwt.MapClaims)
	if !ok {
		return "", errors.New("claims not found in context")
	}

	clerkID, ok := claims["sub"].(string)
	if !ok {
		return "", errors.New("user ID not found in claims")
	}

	return clerkID, nil
}

// RouteGuard enforces the route classification tables: public paths and the
// webhook api paths pass through untouched, everything else needs an
// authenticated session. Unauthenticated page requests are redirected to the
// sign-in page; unauthenticated api requests get a 401.
func RouteGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		if path == "/health" || path == "/metrics" {
			return c.Next()
		}

		if routes.IsAPI(path) || routes.IsPublic(path) {
			return c.Next()
		}

		claims, err := sessionFromRequest(c)
		if err != nil {
			if strings.HasPrefix(path, "/api/") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthenticated"})
			}
			return c.Redirect(routes.SignInURL, fiber.StatusFound)
		}

		c.Locals("sessionClaims", claims)

		return c.Next()
	}
}

func sessionFromRequest(c *fiber.Ctx) (jwt.MapClaims, error) {
	tokenString, err := bearerToken(c)
	if err != nil {
		return nil, err
	}

	return validateSessionToken(tokenString)
}

func PrometheusMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start).Seconds()
		statusCode := c.Response().StatusCode()

		if err != nil {
			var e *fiber.Error

			if errors.As(err, &e) {
				statusCode = e.Code
			} else {
				statusCode = fiber.StatusInternalServerError
			}
		}

		method := c.Method()
		path := c.Path()
		routeClass := routes.Classify(path)
		statusStr := fmt.Sprintf("%d", statusCode)

		httpRequestTotal.WithLabelValues(method, path, routeClass, statusStr).Inc()
		httpRequestDuration.WithLabelValues(method, path, routeClass, statusStr).Observe(duration)

		return err
	}
}
