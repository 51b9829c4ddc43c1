// Package routes holds the static route tables and the classification
// predicates the route guard uses to decide whether a request needs an
// authenticated session.
package routes

import "strings"

// Public routes that are served without authentication.
var PublicRoutes = []string{"/", "/sign-in", "/sign-up"}

// Protected routes that require an authenticated session.
var ProtectedRoutes = []string{"/overview", "/details", "/settings"}

// API routes handled outside the page auth flow (webhooks carry their
// own signature-based authentication).
var APIRoutes = []string{"/api/webhooks"}

// Redirect targets after authentication state changes.
const (
	AfterSignInURL = "/overview"
	AfterSignUpURL = "/overview"
	SignInURL      = "/sign-in"
	SignUpURL      = "/sign-up"
)

func matchesAny(path string, candidates []string) bool {
	for _, route := range candidates {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

func IsPublic(path string) bool {
	return matchesAny(path, PublicRoutes)
}

func IsProtected(path string) bool {
	return matchesAny(path, ProtectedRoutes)
}

func IsAPI(path string) bool {
	for _, route := range APIRoutes {
		if strings.HasPrefix(path, route) {
			return true
		}
	}
	return false
}

// Classify buckets a path into exactly one class. API wins over the
// page classes so /api/webhooks is never treated as a page.
func Classify(path string) string {
	switch {
	case IsAPI(path):
		return "api"
	case IsPublic(path):
		return "public"
	default:
		return "protected"
	}
}
