package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/portfolio/internal/storage"
)

func TestVisitTrackerRecordsPageViews(t *testing.T) {
	store := storage.NewMemoryStorage()
	hasher := storage.NewIPHasher("pepper")
	tracker := NewVisitTracker(store, hasher, nil, zaptest.NewLogger(t))

	handler := tracker.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name    string
		method  string
		target  string
		headers map[string]string
		tracked bool
	}{
		{name: "page view", method: http.MethodGet, target: "/about", tracked: true},
		{name: "do not track", method: http.MethodGet, target: "/about", headers: map[string]string{"DNT": "1"}},
		{name: "content file", method: http.MethodGet, target: "/Content/resume.pdf"},
		{name: "static asset", method: http.MethodGet, target: "/static/site.css"},
		{name: "api call", method: http.MethodGet, target: "/api/health"},
		{name: "favicon", method: http.MethodGet, target: "/favicon.ico"},
		{name: "post", method: http.MethodPost, target: "/about"},
		{name: "not found", method: http.MethodGet, target: "/missing"},
	}

	var want int64
	for _, tc := range tests {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		req.RemoteAddr = "192.0.2.10:5555"
		for k, v := range tc.headers {
			req.Header.Set(k, v)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if tc.tracked {
			want++
		}

		stats, err := store.Stats(context.Background())
		if err != nil {
			t.Fatalf("%s: Stats returned error: %v", tc.name, err)
		}
		if stats.TotalVisits != want {
			t.Fatalf("%s: expected %d visits, got %d", tc.name, want, stats.TotalVisits)
		}
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if got := stats.RecentVisits[0].HashedIP; got != hasher.Hash("192.0.2.10") {
		t.Fatalf("expected hashed remote address, got %q", got)
	}
}

type failingStorage struct {
	storage.Storage
}

func (failingStorage) RecordVisit(context.Context, storage.Visit) error {
	return errors.New("disk full")
}

func TestVisitTrackerIgnoresStorageErrors(t *testing.T) {
	tracker := NewVisitTracker(failingStorage{}, storage.NewIPHasher(""), nil, zaptest.NewLogger(t))
	handler := tracker.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected page to be served despite storage error, got %d", rec.Code)
	}
}

func TestVisitTrackerIgnoresSpoofedForwardedFor(t *testing.T) {
	store := storage.NewMemoryStorage()
	hasher := storage.NewIPHasher("pepper")
	tracker := NewVisitTracker(store, hasher, NewClientIPResolver(nil), zaptest.NewLogger(t))
	handler := tracker.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/about", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", "10.0.0."+strconv.Itoa(i))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.UniqueVisitors != 1 {
		t.Fatalf("expected spoofed headers to collapse to one visitor, got %d", stats.UniqueVisitors)
	}
}
