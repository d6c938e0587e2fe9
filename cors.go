package main

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// withCORS lets a separately hosted frontend call the API. The allowed
// origin comes from CORS_ALLOWED_ORIGIN ("*" allows any origin).
func withCORS(allowedOrigin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{normalizeOrigin(allowedOrigin)},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})
}

// normalizeOrigin adds an http:// scheme to bare host:port values so the
// browser sees an exact match to Origin.
func normalizeOrigin(origin string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "http://localhost:3000"
	}
	if origin != "*" && !strings.Contains(origin, "://") {
		return "http://" + origin
	}
	return origin
}
