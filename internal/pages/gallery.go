package pages

import (
	"io/fs"
	"path"
	"strings"
)

// Carousel is the detail-image slideshow of one project. Index is 1-based.
type Carousel struct {
	Project int
	Title   string
	Slides  []string
	Index   int
}

// NewCarousel opens the slideshow for project number (1..4) at slide.
func NewCarousel(p *Profile, number, slide int) (Carousel, error) {
	if number < 1 || number > maxProjects {
		return Carousel{}, ErrProjectNotFound
	}
	project := p.Projects()[number-1]
	if project.Title == "" {
		return Carousel{}, ErrProjectNotFound
	}
	if len(project.DetailImages) == 0 {
		return Carousel{}, ErrEmptyGallery
	}

	slides := make([]string, len(project.DetailImages))
	for i, img := range project.DetailImages {
		slides[i] = contentURL(img.String())
	}

	c := Carousel{
		Project: number,
		Title:   project.Title.String(),
		Slides:  slides,
	}
	c.Index = c.wrap(slide)
	return c, nil
}

// wrap maps past-the-end to the first slide and before-the-start to the last.
func (c Carousel) wrap(n int) int {
	switch {
	case n > len(c.Slides):
		return 1
	case n < 1:
		return len(c.Slides)
	default:
		return n
	}
}

// Current returns the URL of the visible slide.
func (c Carousel) Current() string {
	return c.Slides[c.Index-1]
}

// Next returns the index shown after the current one.
func (c Carousel) Next() int {
	return c.wrap(c.Index + 1)
}

// Prev returns the index shown before the current one.
func (c Carousel) Prev() int {
	return c.wrap(c.Index - 1)
}

// NextURL and PrevURL link to the neighbouring slides.
func (c Carousel) NextURL() string {
	return galleryURL(c.Project, c.Next())
}

func (c Carousel) PrevURL() string {
	return galleryURL(c.Project, c.Prev())
}

// Viewer is the PDF viewer modal contract: a title and a document URL.
type Viewer struct {
	Title string
	URL   string
}

// NewViewer validates file against the content root and builds the viewer.
func NewViewer(file, title string) (Viewer, error) {
	name := strings.TrimPrefix(strings.TrimSpace(file), contentPrefix)
	name = strings.TrimPrefix(name, "Content/")
	if !fs.ValidPath(name) || name == "." || !strings.EqualFold(path.Ext(name), ".pdf") {
		return Viewer{}, ErrInvalidDocument
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}
	return Viewer{Title: title, URL: contentURL(name)}, nil
}
