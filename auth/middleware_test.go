package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService("test-secret-key-please-rotate")
	if err != nil {
		t.Fatalf("NewJWTService() error = %v", err)
	}
	return svc
}

func TestMiddleware_AllowsValidToken(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.GenerateToken("user-42")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	var gotUserID string
	handler := Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{
			name:  "bearer header",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		},
		{
			name:  "cookie",
			setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: token}) },
		},
		{
			name: "query parameter",
			setup: func(r *http.Request) {
				q := r.URL.Query()
				q.Set("token", token)
				r.URL.RawQuery = q.Encode()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Fatalf("status = %d, want 204", rec.Code)
			}
			if gotUserID != "user-42" {
				t.Errorf("user id in context = %q, want user-42", gotUserID)
			}
		})
	}
}

func TestMiddleware_RejectsBadRequests(t *testing.T) {
	svc := newTestJWTService(t)

	handler := Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{name: "no token", setup: func(r *http.Request) {}},
		{
			name:  "malformed header",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic abc123") },
		},
		{
			name:  "invalid token",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer not.a.jwt") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != "UNAUTHENTICATED" {
				t.Errorf("error code = %q, want UNAUTHENTICATED", body.Error.Code)
			}
		})
	}
}

func TestGetUserIDFromContext_Empty(t *testing.T) {
	if got := GetUserIDFromContext(context.Background()); got != "" {
		t.Errorf("GetUserIDFromContext() = %q, want empty", got)
	}
}

func TestWithUserID(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-7")
	if got := GetUserIDFromContext(ctx); got != "user-7" {
		t.Errorf("GetUserIDFromContext() = %q, want user-7", got)
	}
}
