package pages

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/eugenenazirov/portfolio/internal/profile"
)

//go:embed templates/*.html static/*
var assets embed.FS

var pageNames = []string{"about", "experience", "projects", "gallery", "viewer", "error"}

const fallbackHeading = "Oops! Something went wrong."

var lineBreak = regexp.MustCompile(`(?i)&lt;br\s*/?&gt;`)

var funcs = template.FuncMap{"withBreaks": withBreaks}

// withBreaks escapes s and then restores <br> tags, the only markup profile
// text may carry.
func withBreaks(s string) template.HTML {
	return template.HTML(lineBreak.ReplaceAllString(template.HTMLEscapeString(s), "<br>"))
}

// ProfileLoader provides the loaded profile handle.
type ProfileLoader interface {
	Instance(ctx context.Context) (*profile.Handle, error)
}

// Handler renders the site pages from the profile document.
type Handler struct {
	loader    ProfileLoader
	logger    *zap.Logger
	templates map[string]*template.Template
}

// NewHandler parses the embedded templates and returns a page handler.
func NewHandler(loader ProfileLoader, logger *zap.Logger) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(assets, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Handler{
		loader:    loader,
		logger:    logger,
		templates: templates,
	}, nil
}

// Routes returns the page routes.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleAbout)
	mux.HandleFunc("GET /about", h.handleAbout)
	mux.HandleFunc("GET /experience", h.handleExperience)
	mux.HandleFunc("GET /projects", h.handleProjects)
	mux.HandleFunc("GET /projects/{number}/gallery", h.handleGallery)
	mux.HandleFunc("GET /viewer", h.handleViewer)
	return mux
}

// Static returns the embedded stylesheet directory.
func Static() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (h *Handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profileOrFallback(w, r, "profile")
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "about", BindAbout(p))
}

func (h *Handler) handleExperience(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profileOrFallback(w, r, "experience")
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "experience", BindExperience(p))
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profileOrFallback(w, r, "project")
	if !ok {
		return
	}
	h.render(w, http.StatusOK, "projects", BindProjects(p))
}

type galleryView struct {
	Nav      Navigation
	Carousel Carousel
}

func (h *Handler) handleGallery(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profileOrFallback(w, r, "project")
	if !ok {
		return
	}
	nav := BindNavigation(p)

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		h.renderMessage(w, http.StatusNotFound, nav, "Project not found", "There is no project with that number.")
		return
	}
	slide := 1
	if raw := r.URL.Query().Get("slide"); raw != "" {
		if slide, err = strconv.Atoi(raw); err != nil {
			slide = 1
		}
	}

	carousel, err := NewCarousel(p, number, slide)
	if err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			h.renderMessage(w, http.StatusNotFound, nav, "Project not found", "There is no project with that number.")
		case errors.Is(err, ErrEmptyGallery):
			h.renderMessage(w, http.StatusNotFound, nav, "No images", "This project has no detail images yet.")
		default:
			h.renderMessage(w, http.StatusInternalServerError, nav, fallbackHeading, err.Error())
		}
		return
	}

	h.render(w, http.StatusOK, "gallery", galleryView{Nav: nav, Carousel: carousel})
}

type viewerView struct {
	Nav    Navigation
	Viewer Viewer
}

func (h *Handler) handleViewer(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profileOrFallback(w, r, "document")
	if !ok {
		return
	}
	nav := BindNavigation(p)

	query := r.URL.Query()
	viewer, err := NewViewer(query.Get("file"), query.Get("title"))
	if err != nil {
		h.renderMessage(w, http.StatusBadRequest, nav, "Invalid document", err.Error())
		return
	}

	h.render(w, http.StatusOK, "viewer", viewerView{Nav: nav, Viewer: viewer})
}

// profileOrFallback loads and decodes the profile. On failure it renders the
// generic fallback page and reports false, so no page is ever partially bound.
func (h *Handler) profileOrFallback(w http.ResponseWriter, r *http.Request, section string) (*Profile, bool) {
	p, err := h.loadProfile(r.Context())
	if err != nil {
		h.logger.Error("failed to load page content",
			zap.String("path", r.URL.Path),
			zap.String("section", section),
			zap.Error(err),
		)
		h.renderMessage(w, http.StatusServiceUnavailable, Navigation{}, fallbackHeading,
			fmt.Sprintf("Unable to load %s information. Please try refreshing the page.", section))
		return nil, false
	}
	return p, true
}

func (h *Handler) loadProfile(ctx context.Context) (*Profile, error) {
	handle, err := h.loader.Instance(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := handle.Config()
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := doc.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

type messageView struct {
	Nav     Navigation
	Heading string
	Message string
}

func (h *Handler) renderMessage(w http.ResponseWriter, status int, nav Navigation, heading, message string) {
	h.render(w, status, "error", messageView{Nav: nav, Heading: heading, Message: message})
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
