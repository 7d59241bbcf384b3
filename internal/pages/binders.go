package pages

import (
	"html/template"
	"net/url"
	"strconv"
	"strings"
)

const (
	maxProjects = 4

	contentPrefix = "/Content/"
	resumeTitle   = "Resume"
	skillsSep     = ", "
)

// Navigation is shared by every page.
type Navigation struct {
	Thumbnail string
	LinkedIn  string
	GitHub    string
}

// AboutPage is the view model of the About page.
type AboutPage struct {
	Nav         Navigation
	Headshot    string
	Name        string
	Title       string
	Description string
	Email       string
	EmailLink   string
	Phone       string
	PhoneLink   template.URL
}

// ShowPhone reports whether the phone section is rendered.
func (p AboutPage) ShowPhone() bool {
	return p.Phone != ""
}

// ExperiencePage is the view model of the Experience page.
type ExperiencePage struct {
	Nav            Navigation
	Overview       string
	School         string
	Major          string
	Graduation     string
	EducationText  string
	Employment     string
	Role           string
	EmploymentText string
	Skills         string
	SkillsText     string
	Resume         *DocumentLink
}

// DocumentLink opens a PDF in the viewer.
type DocumentLink struct {
	Title     string
	File      string
	ViewerURL string
}

// ProjectCard is one visible project on the Projects page.
type ProjectCard struct {
	Number      int
	Title       string
	Description string
	Image       string
	RepoURL     string
	LiveDemoURL string
	GalleryURL  string
	Documents   []DocumentLink
}

// ShowRepo reports whether the repository link is rendered.
func (c ProjectCard) ShowRepo() bool {
	return c.RepoURL != ""
}

// ShowGallery reports whether the "See More" button is rendered.
func (c ProjectCard) ShowGallery() bool {
	return c.GalleryURL != ""
}

// ProjectsPage is the view model of the Projects page. Projects without a
// title are left out.
type ProjectsPage struct {
	Nav      Navigation
	Projects []ProjectCard
}

// BindNavigation copies the navigation fields present in p.
func BindNavigation(p *Profile) Navigation {
	var nav Navigation
	if p.About.Thumbnail != "" {
		nav.Thumbnail = contentURL(p.About.Thumbnail.String())
	}
	if p.Contact.LinkedIn != "" {
		nav.LinkedIn = p.Contact.LinkedIn.String()
	}
	if p.Contact.GitHub != "" {
		nav.GitHub = p.Contact.GitHub.String()
	}
	return nav
}

// BindAbout builds the About page.
func BindAbout(p *Profile) AboutPage {
	page := AboutPage{Nav: BindNavigation(p)}

	if p.About.Headshot != "" {
		page.Headshot = contentURL(p.About.Headshot.String())
	}
	page.Name = p.About.Name.String()
	page.Title = p.About.Currently.String()
	page.Description = p.About.AboutText.String()

	if email := p.Contact.EMail.String(); email != "" {
		page.Email = email
		page.EmailLink = "mailto:" + email
	}
	if phone := p.Contact.Phone.String(); phone != "" {
		page.Phone = phone
		page.PhoneLink = template.URL("tel:" + strings.ReplaceAll(phone, " ", ""))
	}
	return page
}

// BindExperience builds the Experience page.
func BindExperience(p *Profile) ExperiencePage {
	exp := p.Experience
	page := ExperiencePage{
		Nav:            BindNavigation(p),
		Overview:       exp.ExperienceText.String(),
		School:         exp.School.String(),
		Major:          exp.Major.String(),
		Graduation:     exp.Graduation.String(),
		EducationText:  exp.EducationText.String(),
		Employment:     exp.Employment.String(),
		Role:           exp.Role.String(),
		EmploymentText: exp.EmploymentText.String(),
		Skills:         exp.Skills.Join(skillsSep),
		SkillsText:     exp.SkillsText.String(),
	}

	if exp.Resume != "" {
		link := newDocumentLink(resumeTitle, exp.Resume.String())
		page.Resume = &link
	}
	return page
}

// BindProjects builds the Projects page from the four project slots.
func BindProjects(p *Profile) ProjectsPage {
	page := ProjectsPage{Nav: BindNavigation(p)}

	for i, project := range p.Projects() {
		card, ok := bindProject(i+1, project)
		if !ok {
			continue
		}
		page.Projects = append(page.Projects, card)
	}
	return page
}

func bindProject(number int, project Project) (ProjectCard, bool) {
	if project.Title == "" {
		return ProjectCard{}, false
	}

	card := ProjectCard{
		Number:      number,
		Title:       project.Title.String(),
		Description: project.Desc.String(),
		RepoURL:     project.GitHubRepo.String(),
		LiveDemoURL: project.LiveDemo.String(),
	}
	if project.MainImage != "" {
		card.Image = contentURL(project.MainImage.String())
	}
	if len(project.DetailImages) > 0 {
		card.GalleryURL = galleryURL(number, 1)
	}
	for _, ref := range project.Documents {
		if ref.File == "" {
			continue
		}
		title := ref.Title.String()
		if title == "" {
			title = project.Title.String()
		}
		card.Documents = append(card.Documents, newDocumentLink(title, ref.File.String()))
	}
	return card, true
}

func newDocumentLink(title, file string) DocumentLink {
	query := url.Values{}
	query.Set("file", file)
	query.Set("title", title)
	return DocumentLink{
		Title:     title,
		File:      contentURL(file),
		ViewerURL: "/viewer?" + query.Encode(),
	}
}

func galleryURL(project, slide int) string {
	return "/projects/" + strconv.Itoa(project) + "/gallery?slide=" + strconv.Itoa(slide)
}

// contentURL maps a file name from the profile to its URL under the content root.
func contentURL(name string) string {
	u := url.URL{Path: contentPrefix + strings.TrimPrefix(name, "/")}
	return u.EscapedPath()
}
