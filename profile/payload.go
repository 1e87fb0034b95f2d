package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PayloadKind tags the section payload variant.
type PayloadKind string

const (
	PayloadText          PayloadKind = "text"
	PayloadSkills        PayloadKind = "skills"
	PayloadDetails       PayloadKind = "details"
	PayloadLinks         PayloadKind = "links"
	PayloadOrganizations PayloadKind = "organizations"
	PayloadProjects      PayloadKind = "projects"
	PayloadNone          PayloadKind = "none"
)

// Skill is a labelled skill line with an optional 0-5 rating.
type Skill struct {
	Label  string `json:"label"`
	Info   string `json:"info"`
	Rating int    `json:"rating,omitempty"`
}

// Detail is a contact detail that may be copied to the clipboard.
type Detail struct {
	Label         string `json:"label"`
	Info          string `json:"info"`
	CanCopy       bool   `json:"canCopy,omitempty"`
	Icon          string `json:"icon,omitempty"`
	PDFExportIcon string `json:"pdfExportIcon,omitempty"`
}

// Link is an external profile link.
type Link struct {
	Label         string `json:"label"`
	Link          string `json:"link"`
	Icon          string `json:"icon,omitempty"`
	PDFExportIcon string `json:"pdfExportIcon,omitempty"`
	ExportOnly    bool   `json:"isExportOnly,omitempty"`
}

// Organization is an employment record. An empty To means current.
type Organization struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	Designation string `json:"designation"`
}

// Current reports whether the organization has no end date.
func (o Organization) Current() bool { return o.To == "" }

// ProjectField is a single project attribute.
type ProjectField struct {
	Info             string `json:"info"`
	RequiresShowHide bool   `json:"requiresShowHide,omitempty"`
}

// Project maps field names to attributes.
type Project map[string]ProjectField

// Well-known project field names.
const (
	ProjectTitle            = "title"
	ProjectClient           = "client"
	ProjectDuration         = "duration"
	ProjectSoftwareTech     = "softwareTech"
	ProjectDescription      = "description"
	ProjectResponsibilities = "responsibilities"
)

// ProjectFieldOrder is the display order of well-known project fields.
var ProjectFieldOrder = []string{
	ProjectTitle,
	ProjectClient,
	ProjectDuration,
	ProjectSoftwareTech,
	ProjectDescription,
	ProjectResponsibilities,
}

// Field returns the info for a field name.
func (p Project) Field(name string) string {
	return p[name].Info
}

// OrgProject groups projects under an organization.
type OrgProject struct {
	Organization string    `json:"organization"`
	Projects     []Project `json:"projects"`
}

// Payload is the tagged section content. Only the slice matching Kind is set.
type Payload struct {
	Kind          PayloadKind
	Text          string
	Skills        []Skill
	Details       []Detail
	Links         []Link
	Organizations []Organization
	Projects      []OrgProject
}

// TextPayload builds a text payload.
func TextPayload(text string) Payload {
	return Payload{Kind: PayloadText, Text: text}
}

// SkillsPayload builds a skills payload.
func SkillsPayload(items ...Skill) Payload {
	return Payload{Kind: PayloadSkills, Skills: items}
}

// DetailsPayload builds a details payload.
func DetailsPayload(items ...Detail) Payload {
	return Payload{Kind: PayloadDetails, Details: items}
}

// LinksPayload builds a links payload.
func LinksPayload(items ...Link) Payload {
	return Payload{Kind: PayloadLinks, Links: items}
}

// OrganizationsPayload builds an organizations payload.
func OrganizationsPayload(items ...Organization) Payload {
	return Payload{Kind: PayloadOrganizations, Organizations: items}
}

// ProjectsPayload builds a projects payload.
func ProjectsPayload(items ...OrgProject) Payload {
	return Payload{Kind: PayloadProjects, Projects: items}
}

// IsZero reports whether the payload renders nothing.
func (p Payload) IsZero() bool {
	return p.Kind == "" || p.Kind == PayloadNone
}

// Clone deep-copies the payload.
func (p Payload) Clone() Payload {
	out := Payload{Kind: p.Kind, Text: p.Text}
	if p.Skills != nil {
		out.Skills = append([]Skill(nil), p.Skills...)
	}
	if p.Details != nil {
		out.Details = append([]Detail(nil), p.Details...)
	}
	if p.Links != nil {
		out.Links = append([]Link(nil), p.Links...)
	}
	if p.Organizations != nil {
		out.Organizations = append([]Organization(nil), p.Organizations...)
	}
	if p.Projects != nil {
		out.Projects = make([]OrgProject, len(p.Projects))
		for i, group := range p.Projects {
			projects := make([]Project, len(group.Projects))
			for j, project := range group.Projects {
				copied := make(Project, len(project))
				for name, field := range project {
					copied[name] = field
				}
				projects[j] = copied
			}
			out.Projects[i] = OrgProject{Organization: group.Organization, Projects: projects}
		}
	}
	return out
}

// MarshalJSON writes the variant value only; the tag travels beside it.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PayloadText:
		return json.Marshal(p.Text)
	case PayloadSkills:
		return json.Marshal(p.Skills)
	case PayloadDetails:
		return json.Marshal(p.Details)
	case PayloadLinks:
		return json.Marshal(p.Links)
	case PayloadOrganizations:
		return json.Marshal(p.Organizations)
	case PayloadProjects:
		return json.Marshal(p.Projects)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON classifies untagged content.
func (p *Payload) UnmarshalJSON(data []byte) error {
	decoded, err := ClassifyPayload(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// DecodePayload decodes raw content for an explicit kind, or classifies it
// when kind is empty.
func DecodePayload(kind PayloadKind, raw json.RawMessage) (Payload, error) {
	if kind == "" {
		return ClassifyPayload(raw)
	}
	out := Payload{Kind: kind}
	var err error
	switch kind {
	case PayloadText:
		err = json.Unmarshal(raw, &out.Text)
	case PayloadSkills:
		err = json.Unmarshal(raw, &out.Skills)
	case PayloadDetails:
		err = json.Unmarshal(raw, &out.Details)
	case PayloadLinks:
		err = json.Unmarshal(raw, &out.Links)
	case PayloadOrganizations:
		err = json.Unmarshal(raw, &out.Organizations)
	case PayloadProjects:
		err = json.Unmarshal(raw, &out.Projects)
	case PayloadNone:
		return Payload{Kind: PayloadNone}, nil
	default:
		return Payload{}, NewError(KindValidation, fmt.Sprintf("unknown payload kind %q", kind), nil)
	}
	if err != nil {
		return Payload{}, NewError(KindValidation, fmt.Sprintf("decode %s payload", kind), err)
	}
	return out, nil
}

// ClassifyPayload tags legacy untagged content by inspecting its shape. The
// first array element decides the variant; anything unrecognised is none.
func ClassifyPayload(raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{Kind: PayloadNone}, nil
	}

	switch trimmed[0] {
	case '"':
		return DecodePayload(PayloadText, trimmed)
	case '[':
	default:
		return Payload{Kind: PayloadNone}, nil
	}

	var items []map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		// arrays of non-objects carry no known record shape
		return Payload{Kind: PayloadNone}, nil
	}
	if len(items) == 0 {
		return Payload{Kind: PayloadNone}, nil
	}

	first := items[0]
	has := func(key string) bool {
		_, ok := first[key]
		return ok
	}

	switch {
	case has("projects"):
		return DecodePayload(PayloadProjects, trimmed)
	case has("designation"):
		return DecodePayload(PayloadOrganizations, trimmed)
	case has("link"):
		return DecodePayload(PayloadLinks, trimmed)
	case has("label") && (has("canCopy") || has("icon")):
		return DecodePayload(PayloadDetails, trimmed)
	case has("label"):
		return DecodePayload(PayloadSkills, trimmed)
	default:
		return Payload{Kind: PayloadNone}, nil
	}
}
