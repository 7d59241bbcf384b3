package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/portfolio/internal/storage"
)

const visitRecordTimeout = 2 * time.Second

var untrackedPrefixes = []string{"/Content/", "/static/", "/api/", "/favicon"}

// VisitTracker records successful page views in storage. Client addresses
// are hashed before they leave the middleware.
type VisitTracker struct {
	store    storage.Storage
	hasher   *storage.IPHasher
	resolver *ClientIPResolver
	logger   *zap.Logger
	clock    func() time.Time
}

// NewVisitTracker returns a tracker writing to store. A nil resolver uses the
// connection's remote address.
func NewVisitTracker(store storage.Storage, hasher *storage.IPHasher, resolver *ClientIPResolver, logger *zap.Logger) *VisitTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitTracker{
		store:    store,
		hasher:   hasher,
		resolver: resolver,
		logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Middleware records a visit after next has served a GET request with a
// non-error status. Requests sending "DNT: 1" and asset or API paths are
// never recorded.
func (t *VisitTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shouldTrack(r) {
			next.ServeHTTP(w, r)
			return
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status >= http.StatusBadRequest {
			return
		}

		visit := storage.Visit{
			HashedIP:  t.hasher.Hash(t.resolver.ClientIP(r)),
			UserAgent: r.UserAgent(),
			Path:      r.URL.Path,
			Timestamp: t.clock(),
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), visitRecordTimeout)
		defer cancel()
		if err := t.store.RecordVisit(ctx, visit); err != nil {
			t.logger.Warn("failed to record visit",
				zap.String("path", visit.Path),
				zap.String("request_id", requestIDFromContext(r.Context())),
				zap.Error(err),
			)
		}
	})
}

func shouldTrack(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.Header.Get("DNT") == "1" {
		return false
	}
	for _, prefix := range untrackedPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return false
		}
	}
	return true
}
