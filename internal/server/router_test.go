package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"bookcatalog/internal/logger"
	"bookcatalog/internal/testutil"
	"bookcatalog/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func newTestRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	router, err := NewRouter(db, opts)
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}
	return router
}

func serve(router *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("ok without ping", func(t *testing.T) {
		rec := serve(newTestRouter(t, Options{}), http.MethodGet, "/api/health", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("unavailable when the database is down", func(t *testing.T) {
		router := newTestRouter(t, Options{
			Ping: func(context.Context) error { return errors.New("connection refused") },
		})
		rec := serve(router, http.MethodGet, "/api/health", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestRoutes_ReadsArePublicWritesNeedAuth(t *testing.T) {
	router := newTestRouter(t, Options{})

	public := []string{"/api/v1/genres", "/api/v1/genres/roots", "/api/v1/products", "/api/v1/partners", "/api/v1/isbn/validate?value=9781784392796"}
	for _, path := range public {
		if rec := serve(router, http.MethodGet, path, nil); rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}

	protected := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/genres"},
		{http.MethodPut, "/api/v1/genres/1"},
		{http.MethodDelete, "/api/v1/partners/1"},
		{http.MethodPost, "/api/v1/products/1/check-isbn"},
		{http.MethodGet, "/api/v1/profile"},
	}
	for _, p := range protected {
		if rec := serve(router, p.method, p.path, nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestCORS(t *testing.T) {
	router := newTestRouter(t, Options{AllowedOrigins: []string{"http://localhost:3000"}})

	t.Run("allowed origin", func(t *testing.T) {
		rec := serve(router, http.MethodOptions, "/api/v1/genres", map[string]string{"Origin": "http://localhost:3000"})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		rec := serve(router, http.MethodGet, "/api/v1/genres", map[string]string{"Origin": "http://evil.example"})
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
	})

	t.Run("wildcard", func(t *testing.T) {
		router := newTestRouter(t, Options{AllowedOrigins: []string{"*"}})
		rec := serve(router, http.MethodGet, "/api/v1/genres", map[string]string{"Origin": "http://any.example"})
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected *, got %q", got)
		}
	})
}
