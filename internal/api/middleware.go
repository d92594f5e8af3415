package api

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goulartxls/generate-qr-code-evogo/internal/security"
)

// Rate limiter state
var (
	rateLimitMu     sync.Mutex
	requestCounts   = make(map[string]int)
	requestWindows  = make(map[string]time.Time)
	rateLimit       = 100 // requests per window
	rateLimitWindow = time.Minute
)

// getAllowedOrigins returns the list of allowed CORS origins
func getAllowedOrigins() map[string]bool {
	origins := map[string]bool{
		"http://localhost:3001": true, // Panel (same-origin dev server)
		"http://localhost:5173": true, // Vite dev server
	}

	// Allow additional origins from env var (comma-separated)
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, origin := range strings.Split(extra, ",") {
			origins[strings.TrimSpace(origin)] = true
		}
	}

	return origins
}

// clientIP extracts the caller's IP, honoring X-Forwarded-For
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.Split(forwarded, ",")[0]
	}
	return r.RemoteAddr
}

// BearerToken extracts the instance token from the Authorization header.
// Returns "" when the header is absent or not a bearer credential.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) >= 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// BearerAuthMiddleware rejects requests without an instance token.
// The token itself is opaque here: it is validated by the upstream
// gateway, which this proxy merely forwards it to.
func BearerAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if BearerToken(r) == "" {
			security.LogAuthFailure(clientIP(r), r.Header.Get("User-Agent"), "Missing bearer token")
			SendJSONError(w, "Missing instance token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// RateLimitMiddleware limits requests per IP address
func RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		rateLimitMu.Lock()
		now := time.Now()

		// Reset window if expired
		if window, exists := requestWindows[ip]; !exists || now.Sub(window) > rateLimitWindow {
			requestWindows[ip] = now
			requestCounts[ip] = 0
		}

		requestCounts[ip]++
		count := requestCounts[ip]
		rateLimitMu.Unlock()

		if count > rateLimit {
			security.LogRateLimitExceeded(ip)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next(w, r)
	}
}

// CorsMiddleware adds CORS headers with restricted origins
func CorsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	allowedOrigins := getAllowedOrigins()

	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Check if origin is allowed
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		// If origin not allowed, don't set Access-Control-Allow-Origin (browser blocks)

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")
		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")
		// Referrer policy
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// SecureMiddleware chains security headers, rate limiting, CORS, and
// bearer auth for token-scoped endpoints
func SecureMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return SecurityHeadersMiddleware(CorsMiddleware(RateLimitMiddleware(BearerAuthMiddleware(next))))
}

// OpenMiddleware chains everything except bearer auth, for endpoints
// that do not require an instance token (create, health)
func OpenMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return SecurityHeadersMiddleware(CorsMiddleware(RateLimitMiddleware(next)))
}
