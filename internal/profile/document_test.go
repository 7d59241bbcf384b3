package profile

import (
	"errors"
	"testing"
)

func TestParseDocument(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"About":{"Name":"Jane","Age":3},"Experience":{"Skills":["Go","SQL"]}}`))
	if err != nil {
		t.Fatalf("ParseDocument returned error: %v", err)
	}

	if got := doc.String("About", "Name"); got != "Jane" {
		t.Fatalf("expected Jane, got %q", got)
	}
	if got := doc.String("About", "Age"); got != "" {
		t.Fatalf("expected empty string for non-string value, got %q", got)
	}
	if _, ok := doc.Lookup("About", "Name", "First"); ok {
		t.Fatalf("expected lookup through a string to fail")
	}
	if _, ok := doc.Lookup("Contact"); ok {
		t.Fatalf("expected missing key to fail")
	}

	var view struct {
		Experience struct {
			Skills []string `json:"Skills"`
		} `json:"Experience"`
	}
	if err := doc.Decode(&view); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if len(view.Experience.Skills) != 2 || view.Experience.Skills[1] != "SQL" {
		t.Fatalf("unexpected skills: %v", view.Experience.Skills)
	}
}

func TestParseDocumentRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "not json", "null", `{"About":`} {
		input := input
		t.Run(input, func(t *testing.T) {
			_, err := ParseDocument([]byte(input))
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError for %q, got %v", input, err)
			}
		})
	}
}
