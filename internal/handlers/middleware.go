package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"wordwarrior/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const PlayerContextKey ContextKey = "player"

// Player is the authenticated caller
type Player struct {
	ID   string
	Name string
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.TokenIssuer
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenIssuer, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		limiter: limiter,
	}
}

// RequirePlayer is middleware that requires a valid bearer token.
// Beacon and websocket requests cannot set headers, so a token query parameter is accepted too.
func (m *Middleware) RequirePlayer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "", nil)
			return
		}

		claims, err := m.tokens.Parse(token)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Unauthorized", "Rejected token", err)
			return
		}

		// Add player to context
		ctx := context.WithValue(r.Context(), PlayerContextKey, &Player{ID: claims.PlayerID(), Name: claims.Name})
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles requests per player, or per client IP before authentication
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := security.GetClientIP(r)
		if player := GetPlayerFromContext(r.Context()); player != nil {
			key = "player:" + player.ID
		}

		if !m.limiter.Allow(key) {
			w.Header().Set("Retry-After", "1")
			respondWithError(w, http.StatusTooManyRequests, "Too many requests", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Call next handler
		next.ServeHTTP(w, r)

		// Log request
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// GetPlayerFromContext retrieves the player from the request context
func GetPlayerFromContext(ctx context.Context) *Player {
	player, ok := ctx.Value(PlayerContextKey).(*Player)
	if !ok {
		return nil
	}
	return player
}
