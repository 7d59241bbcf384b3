package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/portfolio/internal/api"
	"github.com/eugenenazirov/portfolio/internal/application"
	"github.com/eugenenazirov/portfolio/internal/pages"
	"github.com/eugenenazirov/portfolio/internal/profile"
	"github.com/eugenenazirov/portfolio/internal/storage"
)

func TestBuildRootHandler(t *testing.T) {
	contentDir := t.TempDir()
	raw := `{"About":{"Name":"Jane Doe"}}`
	if err := os.WriteFile(filepath.Join(contentDir, profile.DocumentName), []byte(raw), 0o644); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}

	logger := zaptest.NewLogger(t)
	loader := profile.NewLoader(profile.NewDirSource(os.DirFS(contentDir)), profile.WithLogger(logger))
	apiHandler := api.NewHandler(loader, storage.NewMemoryStorage())
	pageHandler, err := pages.NewHandler(loader, logger)
	if err != nil {
		t.Fatalf("pages.NewHandler returned error: %v", err)
	}

	handler := application.BuildRootHandler(contentDir, apiHandler, pageHandler)

	t.Run("serves about page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
			t.Fatalf("expected HTML content type, got %q", rec.Header().Get("Content-Type"))
		}
	})

	t.Run("returns not found for unknown paths", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("serves content files", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/Content/profile.json", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Body.String() != raw {
			t.Fatalf("expected profile file contents, got %q", rec.Body.String())
		}
	})

	t.Run("forwards api traffic", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Body.String() != raw {
			t.Fatalf("expected raw profile, got %q", rec.Body.String())
		}
	})
}
