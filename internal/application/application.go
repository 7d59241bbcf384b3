package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/eugenenazirov/portfolio/internal/api"
	"github.com/eugenenazirov/portfolio/internal/config"
	"github.com/eugenenazirov/portfolio/internal/pages"
	"github.com/eugenenazirov/portfolio/internal/profile"
	"github.com/eugenenazirov/portfolio/internal/storage"
)

const hashSaltBytes = 16

// App encapsulates the application dependencies and HTTP server.
type App struct {
	loader  *profile.Loader
	storage storage.Storage
	handler *api.Handler
	pages   *pages.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server

	warmupMaxElapsed time.Duration
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	contentDir, err := resolveContentDir(cfg)
	if err != nil {
		return nil, err
	}

	loader := profile.Configure(newProfileSource(cfg, contentDir),
		profile.WithLogger(logger),
		profile.WithFetchTimeout(cfg.ProfileFetchTimeout),
	)

	store, err := newStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	trusted, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	resolver := api.NewClientIPResolver(trusted)

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set, reload and stats endpoints are disabled")
	}

	salt := cfg.HashSalt
	if salt == "" {
		salt = randomSalt()
		logger.Warn("HASH_SALT not set, visitor hashes will change on restart")
	}

	handler := api.NewHandler(loader, store,
		api.WithHandlerLogger(logger),
		api.WithAdminToken(cfg.AdminToken),
	)
	pageHandler, err := pages.NewHandler(loader, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build page handler: %w", err)
	}
	tracker := api.NewVisitTracker(store, storage.NewIPHasher(salt), resolver, logger)

	mux := BuildRootHandler(contentDir, handler, pageHandler)
	router := api.Wrap(tracker.Middleware(mux), logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithClientIPResolver(resolver),
	)

	logger.Info("application configured",
		zap.String("profile_source", loader.Location()),
		zap.String("content_dir", contentDir),
		zap.Bool("persistent_visits", cfg.VisitsDB != ""),
	)

	return &App{
		loader:           loader,
		storage:          store,
		handler:          handler,
		pages:            pageHandler,
		router:           router,
		logger:           logger,
		server:           NewServer(cfg, router),
		warmupMaxElapsed: cfg.WarmupMaxElapsed,
	}, nil
}

// BuildRootHandler mounts the content files, embedded assets, API routes and
// pages on a single mux.
func BuildRootHandler(contentDir string, apiHandler *api.Handler, pageHandler *pages.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/Content/", http.StripPrefix("/Content/", http.FileServer(http.Dir(contentDir))))
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(pages.Static())))
	apiHandler.Register(mux)
	mux.Handle("/", pageHandler.Routes())

	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Warmup loads the profile before traffic arrives, retrying with exponential
// backoff until it succeeds, ctx ends or the configured time budget is spent.
// A failed warm-up is logged and returned; the server keeps serving and pages
// retry the load on demand.
func (a *App) Warmup(ctx context.Context) error {
	if a.warmupMaxElapsed <= 0 {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = a.warmupMaxElapsed

	attempt := 0
	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		attempt++
		_, err := a.loader.Instance(ctx)
		var parseErr *profile.ParseError
		if errors.As(err, &parseErr) {
			// Parse errors are not retried.
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		a.logger.Warn("profile warm-up attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify); err != nil {
		a.logger.Error("profile warm-up gave up, serving fallback pages until it loads",
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler with the full middleware chain.
func (a *App) Handler() http.Handler {
	return a.router
}

// Close releases the visit storage.
func (a *App) Close() error {
	return a.storage.Close()
}

func newProfileSource(cfg config.Config, contentDir string) profile.Source {
	if cfg.ProfileURL != "" {
		return profile.NewHTTPSource(cfg.ProfileURL, &http.Client{Timeout: cfg.ProfileFetchTimeout})
	}
	return profile.NewDirSource(os.DirFS(contentDir))
}

func newStorage(cfg config.Config, logger *zap.Logger) (storage.Storage, error) {
	if cfg.VisitsDB == "" {
		return storage.NewMemoryStorage(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.OpenSQLite(ctx, cfg.VisitsDB, cfg.VisitRetention)
	if err != nil {
		return nil, fmt.Errorf("failed to open visit database: %w", err)
	}
	pruned, err := store.Prune(ctx)
	if err != nil {
		logger.Warn("failed to prune old visits", zap.Error(err))
	} else if pruned > 0 {
		logger.Info("pruned old visits", zap.Int64("rows", pruned))
	}
	return store, nil
}

// resolveContentDir finds the content root. Relative directories are searched
// for from the working directory upwards. The directory may be missing only
// when the profile comes from a URL.
func resolveContentDir(cfg config.Config) (string, error) {
	dir := cfg.ContentDir
	if filepath.IsAbs(dir) {
		if _, err := os.Stat(dir); err != nil && cfg.ProfileURL == "" {
			return "", fmt.Errorf("content directory %s: %w", dir, err)
		}
		return dir, nil
	}

	resolved, err := resolveProjectPath(dir)
	if err != nil {
		if cfg.ProfileURL != "" {
			return dir, nil
		}
		return "", fmt.Errorf("content directory: %w", err)
	}
	return resolved, nil
}

func randomSalt() string {
	buf := make([]byte, hashSaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprint(time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s: %w", relative, fs.ErrNotExist)
}
