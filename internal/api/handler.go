package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/portfolio/internal/profile"
	"github.com/eugenenazirov/portfolio/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ProfileLoader is the part of profile.Loader the API depends on.
type ProfileLoader interface {
	Instance(ctx context.Context) (*profile.Handle, error)
	Config() (*profile.Document, error)
	IsLoaded() bool
	Reset()
}

// Handler wires the profile loader and visit storage into HTTP handlers.
type Handler struct {
	loader  ProfileLoader
	storage storage.Storage
	logger  *zap.Logger

	adminToken string

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithHandlerLogger sets the logger used for failures inside handlers.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithAdminToken sets the token required by the admin endpoints (visit stats
// and profile reload). Without a token those endpoints always answer 401.
func WithAdminToken(token string) HandlerOption {
	return func(h *Handler) {
		h.adminToken = token
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(loader ProfileLoader, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		loader:  loader,
		storage: store,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:        "ok",
		Timestamp:     h.clock(),
		ProfileLoaded: h.loader.IsLoaded(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	handle, err := h.loader.Instance(r.Context())
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	doc, err := handle.Config()
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Last-Modified", handle.LoadedAt().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Raw())
}

func (h *Handler) handleReloadProfile(w http.ResponseWriter, r *http.Request) {
	h.loader.Reset()

	handle, err := h.loader.Instance(r.Context())
	if err != nil {
		h.writeLoadError(w, err)
		return
	}

	resp := reloadResponse{
		Loaded:   handle.IsLoaded(),
		LoadedAt: handle.LoadedAt(),
		Message:  "Profile reloaded successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.storage.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to read visit stats", zap.Error(err))
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// requireAdmin accepts "Authorization: Bearer <token>" or "X-Admin-Token".
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "admin endpoints are disabled", "Set ADMIN_TOKEN to enable them")
			return
		}

		presented := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
		if auth := r.Header.Get("Authorization"); presented == "" && auth != "" {
			if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "Bearer") {
				presented = strings.TrimSpace(token)
			}
		}

		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(h.adminToken)) != 1 {
			h.logger.Warn("rejected admin request",
				zap.String("path", r.URL.Path),
				zap.String("request_id", requestIDFromContext(r.Context())),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid admin token")
			return
		}
		next(w, r)
	}
}

func (h *Handler) writeLoadError(w http.ResponseWriter, err error) {
	var (
		fetchErr *profile.FetchError
		parseErr *profile.ParseError
	)

	switch {
	case errors.As(err, &fetchErr):
		writeError(w, http.StatusBadGateway, "Profile unavailable", err.Error(),
			"Check that profile.json exists and the profile source is reachable")
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadGateway, "Profile invalid", err.Error(),
			"Fix the JSON syntax of profile.json and reload")
	case errors.Is(err, profile.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, "Profile not loaded", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Profile not loaded", err.Error())
	default:
		h.logger.Error("unexpected profile error", zap.Error(err))
		writeInternalError(w, err)
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type reloadResponse struct {
	Loaded   bool      `json:"loaded"`
	LoadedAt time.Time `json:"loadedAt"`
	Message  string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	ProfileLoaded bool      `json:"profileLoaded"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
