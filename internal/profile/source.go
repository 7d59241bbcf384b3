package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
)

const (
	// DocumentName is the well-known file name of the profile under the content root.
	DocumentName = "profile.json"
	// DocumentPath is the URL path the site serves the profile from.
	DocumentPath = "/Content/" + DocumentName

	maxDocumentSize = 4 << 20
)

// Source retrieves the raw profile bytes. Implementations report retrieval
// failures as *FetchError.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	Location() string
}

// HTTPSource fetches the profile with a GET request to a fixed URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource returns a source for url. A nil client means http.DefaultClient.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Location() string {
	return s.url
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDocumentSize))
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) > maxDocumentSize {
		return nil, &FetchError{Err: errDocumentTooLarge}
	}
	return body, nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// DirSource reads the profile from a content directory. A missing file is
// reported like an HTTP 404 so both sources fail the same way.
type DirSource struct {
	fsys fs.FS
	name string
}

// NewDirSource returns a source reading DocumentName from fsys.
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys, name: DocumentName}
}

func (s *DirSource) Location() string {
	return s.name
}

func (s *DirSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Err: err}
	}

	data, err := fs.ReadFile(s.fsys, s.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FetchError{
				StatusCode: http.StatusNotFound,
				Status:     http.StatusText(http.StatusNotFound),
				Err:        err,
			}
		}
		return nil, &FetchError{Err: err}
	}
	if len(data) > maxDocumentSize {
		return nil, &FetchError{Err: errDocumentTooLarge}
	}
	return data, nil
}
