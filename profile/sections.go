package profile

import (
	"sort"
	"strconv"
	"strings"
)

// Section renderer names used as order config keys.
const (
	RendererAbout         = "about"
	RendererEducation     = "education"
	RendererOrganizations = "organizations"
	RendererSkills        = "skills"
	RendererExperiences   = "experiences"
	RendererContact       = "contact"
)

// MaxRating is the number of stars in a skill rating.
const MaxRating = 5

// SectionEntries returns the section renderers in declaration order.
func SectionEntries() []SectionEntry {
	return []SectionEntry{
		{Name: RendererAbout, Render: renderAbout},
		{Name: RendererEducation, Render: renderEducation},
		{Name: RendererOrganizations, Render: renderOrganizations},
		{Name: RendererSkills, Render: renderSkills},
		{Name: RendererExperiences, Render: renderExperiences},
		{Name: RendererContact, Render: renderContact},
	}
}

var projectFieldLabels = map[string]string{
	ProjectTitle:            "Project",
	ProjectClient:           "Client",
	ProjectDuration:         "Duration",
	ProjectSoftwareTech:     "Software / Technologies",
	ProjectDescription:      "Description",
	ProjectResponsibilities: "Responsibilities",
}

// sectionShell creates the section element. Anchor ids are only set on the
// interactive pass so the off-screen export tree never duplicates them.
func sectionShell(rc RenderContext, name, anchor string) *Node {
	n := El("section").
		WithClass("profile-section", name).
		WithClassIf(rc.IsExport(), "export").
		WithClassIf(rc.IsExport(), "keep-together").
		WithAttr("data-section", name)
	if !rc.IsExport() && anchor != "" {
		n.WithID(anchor)
	}
	return n
}

func sectionHeader(rc RenderContext, title string) *Node {
	return El("h2").WithClass("sec-header").WithClassIf(rc.IsExport(), "export").WithText(title)
}

func renderAbout(rc RenderContext) *Node {
	about, _ := rc.Snapshot.Section(SectionAboutMe)
	n := sectionShell(rc, RendererAbout, rc.Anchors.Home)
	n.Append(sectionHeader(rc, about.Title))
	if about.Info.Kind == PayloadText {
		n.Append(El("p").WithClass("about-me").WithHTML(about.Info.Text))
	}

	if details, ok := rc.Snapshot.Section(SectionDetails); ok {
		n.Append(renderDetails(rc, details))
	}
	if links, ok := rc.Snapshot.Section(SectionLinks); ok {
		n.Append(renderAboutLinks(rc, links))
	}
	if !rc.IsExport() {
		n.Append(renderDownloadButton(rc))
	}
	return n
}

func renderDetails(rc RenderContext, details SectionInfo) *Node {
	if details.Info.Kind != PayloadDetails || len(details.Info.Details) == 0 {
		return nil
	}
	if rc.IsMobile() && !rc.IsExport() {
		return renderMobileDetails(rc, details.Info.Details)
	}
	return renderDesktopDetails(rc, details.Info.Details)
}

func renderDesktopDetails(rc RenderContext, details []Detail) *Node {
	wrap := El("div").WithClass("details").WithClassIf(rc.IsExport(), "export")
	if !rc.IsExport() {
		icons := El("div").WithClass("detail-icons")
		for _, d := range details {
			icons.Append(El("img").
				WithClass("detail-icon", lowercase(d.Label)).
				WithAttr("alt", d.Label).
				WithAttr("src", rc.Icon(d.Icon, d.PDFExportIcon)))
		}
		wrap.Append(icons)
	}
	rows := El("div").WithClass("detail-rows")
	for _, d := range details {
		rows.Append(detailRow(rc, d))
	}
	return wrap.Append(rows)
}

func renderMobileDetails(rc RenderContext, details []Detail) *Node {
	wrap := El("div").WithClass("details", "mobile")
	for _, d := range details {
		wrap.Append(El("div").WithClass("mobile-detail").Append(detailRow(rc, d)))
	}
	return wrap
}

func detailRow(rc RenderContext, d Detail) *Node {
	row := El("div").WithClass("detail-info").WithClassIf(d.CanCopy, "can-copy")
	if d.CanCopy {
		row.WithAttr("data-copy-label", d.Label)
	}
	if rc.IsExport() && d.PDFExportIcon != "" {
		row.Append(El("img").WithClass("detail-icon", "export").
			WithAttr("alt", d.Label).
			WithAttr("src", d.PDFExportIcon))
	}
	row.Append(El("span").WithClass("detail-label").WithText(d.Label))

	linked := d.CanCopy && (rc.IsMobile() || rc.IsExport())
	if href := detailHref(d.Label, d.Info); linked && href != "" {
		row.Append(El("a").WithClass("detail-value").WithAttr("href", href).WithText(d.Info))
	} else {
		value := El("span").WithClass("detail-info-text", "detail-value").WithID(rc.detailID(d.Label))
		if d.CanCopy {
			value.WithText(d.Info)
		} else {
			value.WithHTML(d.Info)
		}
		row.Append(value)
	}

	if rc.Copy.Affordance(d.Label, d.CanCopy, rc.Mode) {
		copied := rc.Copy.StatusOf(d.Label) == CopyCopied
		label := "Copy"
		if copied {
			label = "Copied!"
		}
		row.Append(El("button").
			WithClass("copy-btn").
			WithClassIf(rc.IsMobile(), "mobile").
			WithClassIf(copied, "copied").
			WithAttr("data-label", d.Label).
			WithAttr("data-clipboard-text", d.Info).
			WithText(label))
	}
	return row
}

func (rc RenderContext) detailID(label string) string {
	if rc.IsExport() {
		return ""
	}
	return lowercase(label)
}

func renderAboutLinks(rc RenderContext, links SectionInfo) *Node {
	if links.Info.Kind != PayloadLinks {
		return nil
	}
	wrap := El("div").WithClass("about-links").WithClassIf(rc.IsExport(), "export")
	for _, l := range links.Info.Links {
		if l.ExportOnly && !rc.IsExport() {
			continue
		}
		anchor := El("a").WithClass("link").
			WithAttr("href", l.Link).
			WithAttr("target", "_blank").
			WithAttr("rel", "noopener noreferrer").
			Append(El("img").WithAttr("alt", l.Label).WithAttr("src", rc.Icon(l.Icon, l.PDFExportIcon)))
		if rc.IsExport() {
			anchor.Append(El("span").WithClass("link-label").WithText(l.Link))
		}
		wrap.Append(anchor)
	}
	if len(wrap.Children) == 0 {
		return nil
	}
	return wrap
}

func renderDownloadButton(rc RenderContext) *Node {
	msg := rc.Snapshot.DownloadMessage(rc.DownloadStage)
	btn := El("button").
		WithClass("download-btn").
		WithClassIf(rc.Downloading, "downloading").
		WithAttr("data-stage", string(rc.DownloadStage)).
		WithAttr("data-action", "export")
	if rc.Downloading {
		btn.WithAttr("disabled", "disabled")
	}
	if msg.Icon != "" {
		btn.Append(El("img").WithAttr("alt", "").WithAttr("src", msg.Icon))
	}
	return btn.Append(El("span").WithText(msg.Message))
}

func renderEducation(rc RenderContext) *Node {
	education, ok := rc.Snapshot.Section(SectionEducation)
	if !ok || education.Info.Kind != PayloadText {
		return nil
	}
	return sectionShell(rc, RendererEducation, rc.Anchors.Education).Append(
		sectionHeader(rc, education.Title),
		El("div").WithClass("education-info").WithHTML(education.Info.Text),
	)
}

func renderOrganizations(rc RenderContext) *Node {
	if rc.IsExport() {
		return nil
	}
	orgs, ok := rc.Snapshot.Section(SectionOrganizations)
	if !ok || orgs.Info.Kind != PayloadOrganizations {
		return nil
	}
	n := sectionShell(rc, RendererOrganizations, rc.Anchors.Org).Append(sectionHeader(rc, orgs.Title))
	list := El("div").WithClass("organizations").WithClassIf(rc.IsMobile(), "mobile")
	for _, org := range orgs.Info.Organizations {
		list.Append(El("div").WithClass("organization").
			WithClassIf(org.Current(), "current").
			Append(
				El("h3").WithClass("org-name", lowercase(org.Type)).WithText(org.Name),
				El("span").WithClass("designation").WithText(org.Designation),
				El("span").WithClass("duration").WithText(organizationDuration(org)),
			))
	}
	return n.Append(list)
}

func organizationDuration(org Organization) string {
	if org.Current() {
		return org.From + " - present"
	}
	return org.From + " - " + org.To
}

func renderSkills(rc RenderContext) *Node {
	skills, ok := rc.Snapshot.Section(SectionSkills)
	if !ok || skills.Info.Kind != PayloadSkills {
		return nil
	}
	n := sectionShell(rc, RendererSkills, rc.Anchors.Skills).Append(sectionHeader(rc, skills.Title))
	list := El("div").WithClass("skill-list")
	for _, s := range skills.Info.Skills {
		item := El("div").WithClass("skill").Append(
			El("span").WithClass("skill-label").WithText(s.Label),
			El("span").WithClass("skill-info").WithHTML(s.Info),
		)
		item.Append(renderStars(rc, s.Rating))
		list.Append(item)
	}
	return n.Append(list)
}

func renderStars(rc RenderContext, rating int) *Node {
	if rating <= 0 {
		return nil
	}
	if rating > MaxRating {
		rating = MaxRating
	}
	stars := El("div").WithClass("rating").WithAttr("data-rating", strconv.Itoa(rating))
	for i := 0; i < MaxRating; i++ {
		icon := rc.Icons.StarUnfilled
		class := "star-unfilled"
		if i < rating {
			icon = rc.Icons.Star
			class = "star"
		}
		stars.Append(El("img").WithClass(class).WithAttr("alt", "").WithAttr("src", icon.Pick(rc.Mode)))
	}
	return stars
}

func renderExperiences(rc RenderContext) *Node {
	experience, ok := rc.Snapshot.Section(SectionExperience)
	if !ok || experience.Info.Kind != PayloadProjects {
		return nil
	}
	if rc.IsExport() {
		return renderResumeExperiences(rc, experience)
	}
	n := sectionShell(rc, RendererExperiences, rc.Anchors.Experience).Append(sectionHeader(rc, experience.Title))
	for gi, group := range experience.Info.Projects {
		wrap := El("div").WithClass("org-projects").Append(
			El("h3").WithClass("org-name").WithText(group.Organization),
		)
		for pi, project := range group.Projects {
			wrap.Append(renderProjectCard(project, gi, pi))
		}
		n.Append(wrap)
	}
	return n
}

func renderProjectCard(project Project, group, index int) *Node {
	card := El("article").WithClass("project-card")
	for _, name := range projectFieldNames(project) {
		field := project[name]
		label := projectFieldLabels[name]
		if label == "" {
			label = name
		}
		row := El("div").WithClass("project-field", "field-"+name).Append(
			El("span").WithClass("field-label").WithText(label),
			El("div").WithClass("field-value").WithHTML(field.Info),
		)
		if field.RequiresShowHide {
			row.WithClass("collapsible").
				WithAttr("data-toggle", name+"-"+strconv.Itoa(group)+"-"+strconv.Itoa(index))
		}
		card.Append(row)
	}
	return card
}

// projectFieldNames lists well-known fields first, then any extras sorted.
func projectFieldNames(project Project) []string {
	names := make([]string, 0, len(project))
	known := make(map[string]bool, len(ProjectFieldOrder))
	for _, name := range ProjectFieldOrder {
		known[name] = true
		if _, ok := project[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range project {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// ResumeRow is the condensed export line for one organization.
type ResumeRow struct {
	Organization string
	Designation  string
	Duration     string
	ProjectNames string
	ClientNames  string
	TotalClients int
}

// ResumeRows condenses the experience section for the export pass.
func ResumeRows(s Snapshot) []ResumeRow {
	experience, ok := s.Section(SectionExperience)
	if !ok || experience.Info.Kind != PayloadProjects {
		return nil
	}
	orgs := map[string]Organization{}
	if section, ok := s.Section(SectionOrganizations); ok && section.Info.Kind == PayloadOrganizations {
		for _, org := range section.Info.Organizations {
			orgs[org.Name] = org
		}
	}

	rows := make([]ResumeRow, 0, len(experience.Info.Projects))
	for _, group := range experience.Info.Projects {
		var projects, clients []string
		seen := map[string]bool{}
		for _, p := range group.Projects {
			if title := p.Field(ProjectTitle); title != "" {
				projects = append(projects, title)
			}
			client := p.Field(ProjectClient)
			if client != "" && !seen[client] {
				seen[client] = true
				clients = append(clients, client)
			}
		}
		row := ResumeRow{
			Organization: group.Organization,
			ProjectNames: strings.Join(projects, ", "),
			ClientNames:  strings.Join(clients, ", "),
			TotalClients: len(clients),
		}
		if org, ok := orgs[group.Organization]; ok {
			row.Designation = org.Designation
			row.Duration = organizationDuration(org)
		}
		rows = append(rows, row)
	}
	return rows
}

func renderResumeExperiences(rc RenderContext, experience SectionInfo) *Node {
	n := sectionShell(rc, RendererExperiences, "")
	n.Append(sectionHeader(rc, experience.Title).WithClass("page-break"))
	for _, row := range ResumeRows(rc.Snapshot) {
		item := El("div").WithClass("resume-row", "keep-together").Append(
			El("h3").WithClass("org-name").WithText(row.Organization),
		)
		if row.Designation != "" {
			item.Append(El("span").WithClass("designation").WithText(row.Designation))
		}
		if row.Duration != "" {
			item.Append(El("span").WithClass("duration").WithText(row.Duration))
		}
		if row.ProjectNames != "" {
			item.Append(El("div").WithClass("projects").WithText("Projects: " + row.ProjectNames))
		}
		if row.ClientNames != "" {
			item.Append(El("div").WithClass("clients").WithText("Clients: " + row.ClientNames))
		}
		n.Append(item)
	}
	return n
}

func renderContact(rc RenderContext) *Node {
	if rc.IsExport() {
		return nil
	}
	links, ok := rc.Snapshot.Section(SectionLinks)
	if !ok || links.Info.Kind != PayloadLinks {
		return nil
	}
	n := sectionShell(rc, RendererContact, rc.Anchors.Contact)
	for _, l := range links.Info.Links {
		if l.ExportOnly {
			continue
		}
		n.Append(El("a").WithClass("link").
			WithAttr("href", l.Link).
			WithAttr("target", "_blank").
			WithAttr("rel", "noopener noreferrer").
			Append(El("img").WithClass(lowercase(l.Label)).WithAttr("alt", l.Label).WithAttr("src", l.Icon)))
	}
	return n
}

func lowercase(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "")
}

// detailHref builds a tel: or mailto: link for a copyable detail.
func detailHref(label, info string) string {
	key := lowercase(label)
	switch {
	case strings.Contains(key, "mail") || strings.Contains(info, "@"):
		return "mailto:" + strings.TrimSpace(info)
	case strings.Contains(key, "mobile") || strings.Contains(key, "phone") || strings.Contains(key, "tel"):
		return "tel:" + strings.ReplaceAll(strings.TrimSpace(info), " ", "")
	default:
		return ""
	}
}
