package pages

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/portfolio/internal/profile"
)

func newTestHandler(t *testing.T, files fstest.MapFS) http.Handler {
	t.Helper()

	loader := profile.NewLoader(profile.NewDirSource(files))
	handler, err := NewHandler(loader, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewHandler returned error: %v", err)
	}
	return handler.Routes()
}

func profileFS(raw string) fstest.MapFS {
	return fstest.MapFS{profile.DocumentName: {Data: []byte(raw)}}
}

func get(t *testing.T, handler http.Handler, target string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return rec.Code, string(body)
}

func TestPagesRender(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, profileFS(fullProfile))

	tests := []struct {
		target   string
		contains []string
		excludes []string
	}{
		{
			target:   "/",
			contains: []string{`id="pfAboutName">Jane Doe<`, `href="mailto:jane@example.com"`, `href="tel:5550100"`, `src="/Content/thumb.png"`},
		},
		{
			target:   "/experience",
			contains: []string{`id="pfSkills">Go, SQL, Kubernetes<`, `href="/viewer?file=resume.pdf&amp;title=Resume"`},
		},
		{
			target:   "/projects",
			contains: []string{`id="project1"`, `id="openProject1"`, `id="project2"`, `id="liveDemo4"`},
			excludes: []string{`id="project3"`, `id="pfProject2Repo"`, `id="openProject4"`},
		},
		{
			target:   "/projects/1/gallery?slide=4",
			contains: []string{`src="/Content/mm1.png"`, `href="/projects/1/gallery?slide=3"`, `1 / 3`},
		},
		{
			target:   "/viewer?file=System+Proposal.pdf&title=System+Proposal",
			contains: []string{`id="pdfTitle">System Proposal<`, `src="/Content/System%20Proposal.pdf"`},
		},
	}

	for _, tc := range tests {
		code, body := get(t, handler, tc.target)
		if code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", tc.target, code)
		}
		for _, want := range tc.contains {
			if !strings.Contains(body, want) {
				t.Fatalf("%s: expected body to contain %q", tc.target, want)
			}
		}
		for _, unwanted := range tc.excludes {
			if strings.Contains(body, unwanted) {
				t.Fatalf("%s: expected body not to contain %q", tc.target, unwanted)
			}
		}
	}
}

func TestPagesHidePhoneWhenMissing(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, profileFS(`{"About":{"Name":"Jane"},"Contact":{}}`))

	code, body := get(t, handler, "/about")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if strings.Contains(body, `id="elPhone"`) {
		t.Fatalf("expected phone section to be hidden")
	}
}

func TestPagesFallbackOnLoadFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files fstest.MapFS
	}{
		{name: "missing profile", files: fstest.MapFS{}},
		{name: "invalid json", files: profileFS("not json")},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(t, tc.files)

			code, body := get(t, handler, "/experience")
			if code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", code)
			}
			if !strings.Contains(body, "Oops! Something went wrong.") {
				t.Fatalf("expected fallback heading in body")
			}
			if !strings.Contains(body, "Unable to load experience information") {
				t.Fatalf("expected fallback message in body")
			}
			if strings.Contains(body, `id="pfSkills"`) {
				t.Fatalf("expected no partially bound content")
			}
		})
	}
}

func TestGalleryAndViewerErrors(t *testing.T) {
	t.Parallel()

	handler := newTestHandler(t, profileFS(fullProfile))

	tests := []struct {
		target string
		want   int
	}{
		{target: "/projects/2/gallery", want: http.StatusNotFound},
		{target: "/projects/3/gallery", want: http.StatusNotFound},
		{target: "/projects/abc/gallery", want: http.StatusNotFound},
		{target: "/viewer?file=../secret.pdf", want: http.StatusBadRequest},
		{target: "/viewer", want: http.StatusBadRequest},
	}

	for _, tc := range tests {
		if code, _ := get(t, handler, tc.target); code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.target, tc.want, code)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	t.Parallel()

	if _, err := Static().Open("site.css"); err != nil {
		t.Fatalf("expected embedded stylesheet: %v", err)
	}
}

func TestDescriptionsKeepLineBreaksOnly(t *testing.T) {
	t.Parallel()

	raw := `{
		"About": {"Name": "Jane Doe", "AboutText": "Line one<br>Line two<BR />three"},
		"Project1": {"Title": "Site", "Desc": "Fast<br/>safe<script>alert(1)</script>"}
	}`
	handler := newTestHandler(t, profileFS(raw))

	_, about := get(t, handler, "/about")
	if !strings.Contains(about, `Line one<br>Line two<br>three`) {
		t.Fatalf("expected line breaks in about text, got %s", about)
	}

	_, projects := get(t, handler, "/projects")
	if !strings.Contains(projects, `Fast<br>safe&lt;script&gt;alert(1)&lt;/script&gt;`) {
		t.Fatalf("expected escaped markup with line breaks, got %s", projects)
	}
	if strings.Contains(projects, "<script>") {
		t.Fatalf("expected script tag to be escaped")
	}
}

func TestNewHandlerWithoutLogger(t *testing.T) {
	t.Parallel()

	loader := profile.NewLoader(profile.NewDirSource(fstest.MapFS{}))
	handler, err := NewHandler(loader, nil)
	if err != nil {
		t.Fatalf("NewHandler returned error: %v", err)
	}

	code, body := get(t, handler.Routes(), "/experience")
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for missing profile, got %d", code)
	}
	if !strings.Contains(body, "Unable to load experience information") {
		t.Fatalf("expected fallback message, got %s", body)
	}
}
