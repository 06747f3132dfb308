package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"binarymlm-go/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

func writeJSONError(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Printf("Missing authorization header for %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			writeJSONError(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header required"})
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
			log.Printf("Malformed authorization header for %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
			writeJSONError(w, http.StatusUnauthorized, map[string]string{"error": "Invalid authorization header format"})
			return
		}

		claims, err := utils.ValidateToken(bearerToken[1])
		if err != nil {
			log.Printf("Token validation failed for %s %s from %s: %v", r.Method, r.URL.Path, r.RemoteAddr, err)
			writeJSONError(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r)
		if claims == nil {
			writeJSONError(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized - No user context"})
			return
		}

		if !claims.IsAdmin {
			log.Printf("User %d (%s) attempted to access admin endpoint %s without admin privileges",
				claims.UserID, claims.Username, r.URL.Path)
			writeJSONError(w, http.StatusForbidden, map[string]string{
				"error":   "Admin access required",
				"message": "This endpoint requires admin privileges",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func GetUserFromContext(r *http.Request) *utils.Claims {
	if claims, ok := r.Context().Value(UserContextKey).(*utils.Claims); ok {
		return claims
	}
	return nil
}

// WithClaims returns ctx carrying the authenticated claims.
func WithClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
