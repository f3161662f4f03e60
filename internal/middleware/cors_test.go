package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSPolicy_Allows(t *testing.T) {
	p := NewCORSPolicy(
		[]string{"https://pashubazaar.in", "http://localhost:5173/"},
		[]string{".vercel.app", "netlify.app"},
		true, false,
	)

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://pashubazaar.in", true},
		{"HTTPS://PashuBazaar.in", true},
		{"http://localhost:5173", true},
		{"https://evil.com", false},
		{"https://pashubazaar.in.evil.com", false},
		{"https://preview-123.vercel.app", true},
		{"https://site.netlify.app", true},
		{"https://vercel.app", false},
		{"https://notvercel.app", false},
		{"https://preview.vercel.app:8443", true},
	}
	for _, tt := range tests {
		if got := p.Allows(tt.origin); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestCORSPolicy_AllowAll(t *testing.T) {
	p := NewCORSPolicy(nil, nil, true, true)
	if !p.Allows("https://anything.example") {
		t.Error("allow-all policy rejected an origin")
	}
}

func TestCORSPolicy_HandlerHeaders(t *testing.T) {
	p := NewCORSPolicy([]string{"https://pashubazaar.in"}, nil, true, false)
	handler := p.Handler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/animals", nil)
		req.Header.Set("Origin", "https://pashubazaar.in")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://pashubazaar.in" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials = %q", got)
		}
	})

	t.Run("rejected origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/animals", nil)
		req.Header.Set("Origin", "https://evil.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/animals", nil)
		req.Header.Set("Origin", "https://pashubazaar.in")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("preflight response lacks Allow-Methods")
		}
	})
}
