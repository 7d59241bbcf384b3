package pages

import (
	"encoding/json"
	"testing"
)

func decodeProfile(t *testing.T, raw string) *Profile {
	t.Helper()

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("failed to decode profile: %v", err)
	}
	return &p
}

func TestBindAbout(t *testing.T) {
	t.Parallel()

	page := BindAbout(decodeProfile(t, fullProfile))

	if page.Name != "Jane Doe" || page.Title != "Software Engineer" {
		t.Fatalf("unexpected name/title: %q / %q", page.Name, page.Title)
	}
	if page.Headshot != "/Content/headshot.jpg" {
		t.Fatalf("unexpected headshot %q", page.Headshot)
	}
	if page.EmailLink != "mailto:jane@example.com" {
		t.Fatalf("unexpected email link %q", page.EmailLink)
	}
	if !page.ShowPhone() || string(page.PhoneLink) != "tel:5550100" {
		t.Fatalf("unexpected phone %q / %q", page.Phone, page.PhoneLink)
	}
	if page.Nav.Thumbnail != "/Content/thumb.png" || page.Nav.GitHub != "https://github.com/jane" {
		t.Fatalf("unexpected navigation %+v", page.Nav)
	}
}

func TestBindAboutMissingFields(t *testing.T) {
	t.Parallel()

	page := BindAbout(decodeProfile(t, `{"About":{"Name":"Jane"}}`))

	if page.Name != "Jane" {
		t.Fatalf("expected name Jane, got %q", page.Name)
	}
	if page.ShowPhone() {
		t.Fatalf("expected phone section to be hidden")
	}
	if page.Headshot != "" || page.Email != "" || page.Nav.Thumbnail != "" {
		t.Fatalf("expected missing fields to stay empty: %+v", page)
	}
}

func TestBindExperience(t *testing.T) {
	t.Parallel()

	page := BindExperience(decodeProfile(t, fullProfile))

	if page.Skills != "Go, SQL, Kubernetes" {
		t.Fatalf("expected joined skills, got %q", page.Skills)
	}
	if page.Resume == nil {
		t.Fatalf("expected resume link")
	}
	if page.Resume.Title != "Resume" || page.Resume.File != "/Content/resume.pdf" {
		t.Fatalf("unexpected resume link %+v", page.Resume)
	}
	if page.Resume.ViewerURL != "/viewer?file=resume.pdf&title=Resume" {
		t.Fatalf("unexpected viewer url %q", page.Resume.ViewerURL)
	}
}

func TestBindExperienceSkillsAsString(t *testing.T) {
	t.Parallel()

	page := BindExperience(decodeProfile(t, `{"Experience":{"Skills":"Go and more","Graduation":2015}}`))

	if page.Skills != "Go and more" {
		t.Fatalf("expected string skills kept as-is, got %q", page.Skills)
	}
	if page.Graduation != "2015" {
		t.Fatalf("expected numeric graduation to render, got %q", page.Graduation)
	}
	if page.Resume != nil {
		t.Fatalf("expected no resume link")
	}
}

func TestBindProjects(t *testing.T) {
	t.Parallel()

	page := BindProjects(decodeProfile(t, fullProfile))

	if len(page.Projects) != 3 {
		t.Fatalf("expected 3 visible projects, got %d", len(page.Projects))
	}

	first := page.Projects[0]
	if first.Number != 1 || !first.ShowRepo() || !first.ShowGallery() {
		t.Fatalf("unexpected first project %+v", first)
	}
	if first.GalleryURL != "/projects/1/gallery?slide=1" {
		t.Fatalf("unexpected gallery url %q", first.GalleryURL)
	}
	if len(first.Documents) != 1 || first.Documents[0].File != "/Content/System%20Proposal.pdf" {
		t.Fatalf("unexpected documents %+v", first.Documents)
	}

	second := page.Projects[1]
	if second.ShowRepo() || second.ShowGallery() || second.Image != "" {
		t.Fatalf("expected repo, gallery and image hidden for %+v", second)
	}

	last := page.Projects[2]
	if last.Number != 4 || last.LiveDemoURL != "https://jane.example.com" || last.ShowGallery() {
		t.Fatalf("unexpected last project %+v", last)
	}
}

func TestTextListDecoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "array", raw: `["a","b"]`, want: "a, b"},
		{name: "string", raw: `"a, b"`, want: "a, b"},
		{name: "null", raw: `null`, want: ""},
		{name: "skips empty", raw: `["a","",null,"b"]`, want: "a, b"},
		{name: "object", raw: `{"a":1}`, want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			var list TextList
			if err := json.Unmarshal([]byte(tc.raw), &list); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := list.Join(", "); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
