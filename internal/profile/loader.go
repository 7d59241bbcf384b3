package profile

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultContentDir is the static asset root the default loader reads from.
	DefaultContentDir = "Content"

	defaultFetchTimeout = 10 * time.Second
)

// Loader fetches the profile document once per generation and caches it.
//
// The loaded slot (handle) and the pending slot (the singleflight group) are
// kept apart: callers arriving while a load is in flight wait on it instead
// of issuing a second fetch. A generation ends with Reset; a failed load
// leaves the loaded slot empty so the next Instance call fetches again.
type Loader struct {
	source  Source
	logger  *zap.Logger
	timeout time.Duration
	clock   func() time.Time

	group singleflight.Group

	mu         sync.Mutex
	generation uint64
	handle     *Handle
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load events.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithFetchTimeout bounds a single fetch. A timeout fails the load like any
// other FetchError. Non-positive values keep the default.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		if timeout > 0 {
			l.timeout = timeout
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Loader) {
		l.clock = clock
	}
}

// NewLoader creates an empty loader reading from source. Nothing is fetched
// until the first Instance call.
func NewLoader(source Source, opts ...Option) *Loader {
	l := &Loader{
		source:  source,
		logger:  zap.NewNop(),
		timeout: defaultFetchTimeout,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handle is the caller's view of a successful load.
type Handle struct {
	loader     *Loader
	generation uint64
	document   *Document
	loadedAt   time.Time
}

// Instance returns the loaded handle, loading the document first if needed.
// Concurrent callers share one in-flight load and receive the same handle or
// the same error. Cancelling ctx stops this caller from waiting; the shared
// fetch keeps running under the loader's own timeout.
func (l *Loader) Instance(ctx context.Context) (*Handle, error) {
	l.mu.Lock()
	if l.handle != nil {
		h := l.handle
		l.mu.Unlock()
		return h, nil
	}
	generation := l.generation
	l.mu.Unlock()

	ch := l.group.DoChan(strconv.FormatUint(generation, 10), func() (any, error) {
		return l.load(generation)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Handle), nil
	}
}

// Config returns the cached document or ErrNotLoaded. It never fetches.
func (l *Loader) Config() (*Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handle == nil {
		return nil, ErrNotLoaded
	}
	return l.handle.document, nil
}

// IsLoaded reports whether a document is cached. It never fetches.
func (l *Loader) IsLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handle != nil
}

// Reset drops the cached document and starts a new generation, so the next
// Instance call fetches again. A load already in flight still answers its
// waiters but its result is not cached.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.handle = nil
	l.generation++
	l.mu.Unlock()
}

// Location describes where the loader reads the document from.
func (l *Loader) Location() string {
	return l.source.Location()
}

func (l *Loader) load(generation uint64) (*Handle, error) {
	l.mu.Lock()
	if l.handle != nil && l.handle.generation == generation {
		h := l.handle
		l.mu.Unlock()
		return h, nil
	}
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	start := time.Now()
	doc, err := l.fetch(ctx)
	if err != nil {
		l.mu.Lock()
		if l.generation == generation {
			l.handle = nil
		}
		l.mu.Unlock()

		l.logger.Error("failed to load profile configuration",
			zap.String("source", l.source.Location()),
			zap.Uint64("generation", generation),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load profile configuration: %w", err)
	}

	h := &Handle{
		loader:     l,
		generation: generation,
		document:   doc,
		loadedAt:   l.clock(),
	}

	l.mu.Lock()
	if l.generation == generation {
		l.handle = h
	}
	l.mu.Unlock()

	l.logger.Info("profile configuration loaded",
		zap.String("source", l.source.Location()),
		zap.Uint64("generation", generation),
		zap.Int("bytes", len(doc.Raw())),
		zap.Duration("duration", time.Since(start)),
	)
	return h, nil
}

func (l *Loader) fetch(ctx context.Context) (*Document, error) {
	data, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// Config returns the document this handle was loaded with, or ErrNotLoaded
// once the loader has been reset past this handle's generation.
func (h *Handle) Config() (*Document, error) {
	if !h.IsLoaded() {
		return nil, ErrNotLoaded
	}
	return h.document, nil
}

// IsLoaded reports whether this handle is still the loader's cached one.
func (h *Handle) IsLoaded() bool {
	h.loader.mu.Lock()
	defer h.loader.mu.Unlock()
	return h.loader.handle == h
}

// LoadedAt returns when the document was loaded.
func (h *Handle) LoadedAt() time.Time {
	return h.loadedAt
}

var (
	defaultMu     sync.Mutex
	defaultLoader *Loader
)

// Default returns the process-wide loader, creating it on first use with a
// DirSource over DefaultContentDir.
func Default() *Loader {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLoader == nil {
		defaultLoader = NewLoader(NewDirSource(os.DirFS(DefaultContentDir)))
	}
	return defaultLoader
}

// Configure replaces the process-wide loader with one reading from source.
// The previous loader and its cache are discarded.
func Configure(source Source, opts ...Option) *Loader {
	l := NewLoader(source, opts...)

	defaultMu.Lock()
	defaultLoader = l
	defaultMu.Unlock()

	return l
}

// Instance returns the process-wide handle, loading it on first use.
func Instance(ctx context.Context) (*Handle, error) {
	return Default().Instance(ctx)
}

// Reset clears the process-wide loader so the next Instance fetches again.
func Reset() {
	Default().Reset()
}
