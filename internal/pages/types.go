package pages

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Profile is the typed view of profile.json used by the binders. Unknown keys
// are ignored and scalar fields tolerate odd JSON types.
type Profile struct {
	About      About      `json:"About"`
	Contact    Contact    `json:"Contact"`
	Experience Experience `json:"Experience"`
	Project1   Project    `json:"Project1"`
	Project2   Project    `json:"Project2"`
	Project3   Project    `json:"Project3"`
	Project4   Project    `json:"Project4"`
}

type About struct {
	Name      Text `json:"Name"`
	Currently Text `json:"Currently"`
	AboutText Text `json:"AboutText"`
	Thumbnail Text `json:"Thumbnail"`
	Headshot  Text `json:"Headshot"`
}

type Contact struct {
	EMail    Text `json:"EMail"`
	Phone    Text `json:"Phone"`
	LinkedIn Text `json:"LinkedIn"`
	GitHub   Text `json:"GitHub"`
}

type Experience struct {
	ExperienceText Text     `json:"ExperienceText"`
	School         Text     `json:"School"`
	Major          Text     `json:"Major"`
	Graduation     Text     `json:"Graduation"`
	EducationText  Text     `json:"EducationText"`
	Employment     Text     `json:"Employment"`
	Role           Text     `json:"Role"`
	EmploymentText Text     `json:"EmploymentText"`
	Skills         TextList `json:"Skills"`
	SkillsText     Text     `json:"SkillsText"`
	Resume         Text     `json:"Resume"`
}

type Project struct {
	Title        Text          `json:"Title"`
	Desc         Text          `json:"Desc"`
	MainImage    Text          `json:"MainImage"`
	GitHubRepo   Text          `json:"GitHubRepo"`
	LiveDemo     Text          `json:"LiveDemo"`
	DetailImages TextList      `json:"DetailImages"`
	Documents    []DocumentRef `json:"Documents"`
}

// DocumentRef names a PDF under the content root shown in the viewer.
type DocumentRef struct {
	Title Text `json:"Title"`
	File  Text `json:"File"`
}

// Projects returns the four project slots in display order.
func (p *Profile) Projects() [maxProjects]Project {
	return [maxProjects]Project{p.Project1, p.Project2, p.Project3, p.Project4}
}

// Text is a lenient string: numbers and booleans keep their literal form,
// null, objects and arrays decode to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case '{', '[', 'n':
		*t = ""
	default:
		*t = Text(data)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// TextList accepts either an array of values or a single string.
type TextList []Text

func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(TextList, 0, len(items))
		for _, item := range items {
			if item != "" {
				out = append(out, item)
			}
		}
		*l = out
	case '"':
		var single Text
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		if single == "" {
			*l = nil
			return nil
		}
		*l = TextList{single}
	default:
		*l = nil
	}
	return nil
}

// Join concatenates the items with sep.
func (l TextList) Join(sep string) string {
	parts := make([]string, len(l))
	for i, item := range l {
		parts[i] = string(item)
	}
	return strings.Join(parts, sep)
}
