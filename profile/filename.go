package profile

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// DefaultFilenameTemplate produces <Name>_Profile.
const DefaultFilenameTemplate = "{{.Name}}_Profile"

type filenameData struct {
	Name   string
	Format string
}

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "\"", "", ":", "_")

func renderFilename(tpl string, header Header, format Format) (string, error) {
	if tpl == "" {
		tpl = DefaultFilenameTemplate
	}

	name := filenameReplacer.Replace(strings.TrimSpace(header.Name))
	if name == "" {
		name = "Profile"
	}

	tmpl, err := template.New("filename").Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, filenameData{Name: name, Format: string(format)}); err != nil {
		return "", err
	}

	result := strings.TrimSpace(buf.String())
	if result == "" {
		return "", fmt.Errorf("empty filename")
	}
	ext := "." + string(format)
	if !strings.HasSuffix(strings.ToLower(result), ext) {
		result += ext
	}
	return result, nil
}
