package profile

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html"
)

// XLSXRenderer writes the export content as a workbook with one sheet per
// exported section.
type XLSXRenderer struct{}

type xlsxSheet struct {
	name    string
	headers []string
	rows    [][]string
}

// Render implements FormatRenderer.
func (r XLSXRenderer) Render(ctx context.Context, page Page, w io.Writer) (RenderStats, error) {
	sheets := workbookSheets(page.Snapshot)
	if len(sheets) == 0 {
		return RenderStats{}, NewError(KindValidation, "nothing to export", nil)
	}

	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	headerID, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return RenderStats{}, err
	}

	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return RenderStats{}, err
		}
		if i == 0 {
			file.SetSheetName(file.GetSheetName(0), sheet.name)
		} else if _, err := file.NewSheet(sheet.name); err != nil {
			return RenderStats{}, err
		}

		stream, err := file.NewStreamWriter(sheet.name)
		if err != nil {
			return RenderStats{}, err
		}
		headers := make([]interface{}, len(sheet.headers))
		for j, h := range sheet.headers {
			headers[j] = excelize.Cell{StyleID: headerID, Value: h}
		}
		if err := stream.SetRow("A1", headers); err != nil {
			return RenderStats{}, err
		}
		for j, row := range sheet.rows {
			cells := make([]interface{}, len(row))
			for k, value := range row {
				cells[k] = value
			}
			if err := stream.SetRow(fmt.Sprintf("A%d", j+2), cells); err != nil {
				return RenderStats{}, err
			}
		}
		if err := stream.Flush(); err != nil {
			return RenderStats{}, err
		}
	}

	cw := &countingWriter{w: w}
	if _, err := file.WriteTo(cw); err != nil {
		return RenderStats{Bytes: cw.count}, err
	}
	return RenderStats{Bytes: cw.count}, nil
}

func workbookSheets(s Snapshot) []xlsxSheet {
	header := s.Header()
	profile := xlsxSheet{name: "Profile", headers: []string{"Field", "Value"}}
	profile.rows = append(profile.rows, []string{"Name", header.Name})
	if about, ok := s.Section(SectionAboutMe); ok && about.Info.Kind == PayloadText {
		profile.rows = append(profile.rows, []string{about.Title, PlainText(about.Info.Text)})
	}
	if details, ok := s.Section(SectionDetails); ok && details.Info.Kind == PayloadDetails {
		for _, d := range details.Info.Details {
			profile.rows = append(profile.rows, []string{d.Label, PlainText(d.Info)})
		}
	}
	if links, ok := s.Section(SectionLinks); ok && links.Info.Kind == PayloadLinks {
		for _, l := range links.Info.Links {
			profile.rows = append(profile.rows, []string{l.Label, l.Link})
		}
	}
	sheets := []xlsxSheet{profile}

	if education, ok := s.Section(SectionEducation); ok && education.Info.Kind == PayloadText {
		sheets = append(sheets, xlsxSheet{
			name:    sheetName(education.Title, "Education"),
			headers: []string{"Education"},
			rows:    [][]string{{PlainText(education.Info.Text)}},
		})
	}

	if skills, ok := s.Section(SectionSkills); ok && skills.Info.Kind == PayloadSkills {
		sheet := xlsxSheet{name: sheetName(skills.Title, "Skills"), headers: []string{"Skill", "Details", "Rating"}}
		for _, skill := range skills.Info.Skills {
			rating := ""
			if skill.Rating > 0 {
				rating = fmt.Sprintf("%d/%d", min(skill.Rating, MaxRating), MaxRating)
			}
			sheet.rows = append(sheet.rows, []string{skill.Label, PlainText(skill.Info), rating})
		}
		sheets = append(sheets, sheet)
	}

	if rows := ResumeRows(s); len(rows) > 0 {
		title := "Experience"
		if experience, ok := s.Section(SectionExperience); ok {
			title = sheetName(experience.Title, title)
		}
		sheet := xlsxSheet{name: title, headers: []string{"Organization", "Designation", "Duration", "Projects", "Clients"}}
		for _, row := range rows {
			sheet.rows = append(sheet.rows, []string{row.Organization, row.Designation, row.Duration, row.ProjectNames, row.ClientNames})
		}
		sheets = append(sheets, sheet)
	}
	return sheets
}

// sheetName trims titles to the 31 character sheet name limit.
func sheetName(title, fallback string) string {
	title = strings.TrimSpace(title)
	for _, bad := range []string{":", "\\", "/", "?", "*", "[", "]"} {
		title = strings.ReplaceAll(title, bad, " ")
	}
	if title == "" {
		title = fallback
	}
	if len(title) > 31 {
		title = title[:31]
	}
	return title
}

// PlainText strips markup from profile content.
func PlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return strings.TrimSpace(markup)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}
	var parts []string
	for _, root := range doc.Nodes {
		collectText(root, &parts)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

type countingWriter struct {
	w     io.Writer
	count int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.count += int64(n)
	return n, err
}
