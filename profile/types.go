package profile

import (
	"encoding/json"
	"time"
)

// SectionKey names an independently fetched profile section.
type SectionKey string

const (
	SectionAboutMe       SectionKey = "about-me"
	SectionDetails       SectionKey = "details"
	SectionEducation     SectionKey = "education"
	SectionOrganizations SectionKey = "organizations"
	SectionSkills        SectionKey = "skills"
	SectionExperience    SectionKey = "experience"
	SectionLinks         SectionKey = "links"
)

// Source keys for the non-section documents.
const (
	KeyHeader   = "header"
	KeyDownload = "download"
)

// RequiredSections is the closed set of sections every snapshot carries.
var RequiredSections = []SectionKey{
	SectionAboutMe,
	SectionDetails,
	SectionEducation,
	SectionOrganizations,
	SectionSkills,
	SectionExperience,
	SectionLinks,
}

// Header is the page heading.
type Header struct {
	ShortDesc string `json:"shortDesc" yaml:"shortDesc"`
	Name      string `json:"name" yaml:"name"`
}

// Validate rejects headers without a name.
func (h Header) Validate() error {
	if h.Name == "" {
		return NewError(KindValidation, "header name is required", nil)
	}
	return nil
}

// DownloadStage is the export button lifecycle.
type DownloadStage string

const (
	StageDownload    DownloadStage = "download"
	StageDownloading DownloadStage = "downloading"
	StageDownloaded  DownloadStage = "downloaded"
)

// DownloadMessage is the label and icon shown for a stage.
type DownloadMessage struct {
	Message string `json:"message" yaml:"message"`
	Icon    string `json:"icon" yaml:"icon"`
}

// Downloads maps each stage to its message.
type Downloads map[DownloadStage]DownloadMessage

// Validate requires the initial stage to be present.
func (d Downloads) Validate() error {
	if _, ok := d[StageDownload]; !ok {
		return NewError(KindValidation, "download stage messages are required", nil)
	}
	return nil
}

func (d Downloads) clone() Downloads {
	out := make(Downloads, len(d))
	for stage, msg := range d {
		out[stage] = msg
	}
	return out
}

// SectionInfo is one section's content.
type SectionInfo struct {
	Title         string  `json:"title"`
	Ref           string  `json:"ref,omitempty"`
	Icon          string  `json:"icon,omitempty"`
	PDFExportIcon string  `json:"pdfExportIcon,omitempty"`
	Info          Payload `json:"info"`
}

// Validate rejects sections without a title.
func (s SectionInfo) Validate() error {
	if s.Title == "" {
		return NewError(KindValidation, "section title is required", nil)
	}
	return nil
}

func (s SectionInfo) clone() SectionInfo {
	s.Info = s.Info.Clone()
	return s
}

type sectionInfoWire struct {
	Title         string          `json:"title"`
	Ref           string          `json:"ref,omitempty"`
	Icon          string          `json:"icon,omitempty"`
	PDFExportIcon string          `json:"pdfExportIcon,omitempty"`
	Kind          PayloadKind     `json:"kind,omitempty"`
	Info          json.RawMessage `json:"info"`
}

// UnmarshalJSON assigns the payload tag at the source boundary: an explicit
// "kind" wins, otherwise the legacy shape is classified once here.
func (s *SectionInfo) UnmarshalJSON(data []byte) error {
	var wire sectionInfoWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	payload, err := DecodePayload(wire.Kind, wire.Info)
	if err != nil {
		return err
	}
	*s = SectionInfo{
		Title:         wire.Title,
		Ref:           wire.Ref,
		Icon:          wire.Icon,
		PDFExportIcon: wire.PDFExportIcon,
		Info:          payload,
	}
	return nil
}

// MarshalJSON writes the explicit tag next to the payload.
func (s SectionInfo) MarshalJSON() ([]byte, error) {
	info, err := json.Marshal(s.Info)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sectionInfoWire{
		Title:         s.Title,
		Ref:           s.Ref,
		Icon:          s.Icon,
		PDFExportIcon: s.PDFExportIcon,
		Kind:          s.Info.Kind,
		Info:          info,
	})
}

// Snapshot is the assembled, immutable profile. Accessors hand out copies.
type Snapshot struct {
	header    Header
	sections  map[SectionKey]SectionInfo
	download  Downloads
	createdAt time.Time
}

// NewSnapshot copies its inputs into a new snapshot.
func NewSnapshot(header Header, sections map[SectionKey]SectionInfo, download Downloads) Snapshot {
	copied := make(map[SectionKey]SectionInfo, len(sections))
	for key, info := range sections {
		copied[key] = info.clone()
	}
	return Snapshot{
		header:    header,
		sections:  copied,
		download:  download.clone(),
		createdAt: time.Now(),
	}
}

// Header returns the page heading.
func (s Snapshot) Header() Header { return s.header }

// Section returns a copy of the section content.
func (s Snapshot) Section(key SectionKey) (SectionInfo, bool) {
	info, ok := s.sections[key]
	if !ok {
		return SectionInfo{}, false
	}
	return info.clone(), true
}

// Sections returns a copy of every section.
func (s Snapshot) Sections() map[SectionKey]SectionInfo {
	out := make(map[SectionKey]SectionInfo, len(s.sections))
	for key, info := range s.sections {
		out[key] = info.clone()
	}
	return out
}

// Downloads returns the stage messages.
func (s Snapshot) Downloads() Downloads { return s.download.clone() }

// DownloadMessage returns the message for a stage, falling back to the
// initial stage.
func (s Snapshot) DownloadMessage(stage DownloadStage) DownloadMessage {
	if msg, ok := s.download[stage]; ok {
		return msg
	}
	return s.download[StageDownload]
}

// CreatedAt reports when the snapshot was assembled.
func (s Snapshot) CreatedAt() time.Time { return s.createdAt }

// Complete reports whether every required section is present.
func (s Snapshot) Complete() bool {
	for _, key := range RequiredSections {
		if _, ok := s.sections[key]; !ok {
			return false
		}
	}
	return true
}

type snapshotWire struct {
	Header   Header                     `json:"header"`
	Sections map[SectionKey]SectionInfo `json:"sections"`
	Download Downloads                  `json:"download"`
}

// MarshalJSON exposes the snapshot for read-only API consumers.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotWire{
		Header:   s.header,
		Sections: s.sections,
		Download: s.download,
	})
}
