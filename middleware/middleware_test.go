package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"binarymlm-go/utils"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuth(t *testing.T) {
	if err := utils.InitializeJWT(strings.Repeat("s", 32)); err != nil {
		t.Fatalf("init jwt: %v", err)
	}
	token, err := utils.GenerateToken(1, 2, "alice", false)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	var seen *utils.Claims
	h := JWTAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r)
	}))

	var logs bytes.Buffer
	log.SetOutput(&logs)
	defer log.SetOutput(os.Stderr)

	tests := []struct {
		name   string
		header string
		status int
		logged string
	}{
		{"missing header", "", http.StatusUnauthorized, "Missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Malformed authorization header"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "Token validation failed"},
		{"valid", "Bearer " + token, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			req := httptest.NewRequest(http.MethodGet, "/api/member/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.logged == "" && logs.Len() != 0 {
				t.Fatalf("expected nothing logged, got %q", logs.String())
			}
			got := logs.String()
			if tt.logged != "" && (!strings.Contains(got, tt.logged) || !strings.Contains(got, "/api/member/dashboard")) {
				t.Fatalf("expected %q with the path in the log, got %q", tt.logged, got)
			}
		})
	}
	if seen == nil || seen.MemberID != 2 {
		t.Fatalf("expected claims in context, got %+v", seen)
	}
}

func TestAdminAuth(t *testing.T) {
	h := AdminAuth(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/members", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rec.Code)
	}

	req = req.WithContext(WithClaims(req.Context(), &utils.Claims{UserID: 1}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	req = req.WithContext(WithClaims(req.Context(), &utils.Claims{UserID: 1, IsAdmin: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	h := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected burst of 2 then 429, got %v", codes)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	other.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected separate bucket per IP, got %d", rec.Code)
	}

	rl.Cleanup(0)
	if len(rl.visitors) != 0 {
		t.Fatalf("expected cleanup to drop idle visitors, got %d", len(rl.visitors))
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	rec := httptest.NewRecorder()
	CORS(okHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected allow-origin header")
	}
}
