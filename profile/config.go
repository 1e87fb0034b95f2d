package profile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// PWAMessages are the install banner labels.
type PWAMessages struct {
	Install string `json:"install" yaml:"install"`
	Yes     string `json:"yes" yaml:"yes"`
	No      string `json:"no" yaml:"no"`
}

// IconPair is an icon with its print variant.
type IconPair struct {
	Icon          string `json:"icon" yaml:"icon"`
	PDFExportIcon string `json:"pdfExportIcon" yaml:"pdfExportIcon"`
}

// Pick returns the variant for a render mode.
func (p IconPair) Pick(mode RenderMode) string {
	if mode == ModeExport && p.PDFExportIcon != "" {
		return p.PDFExportIcon
	}
	return p.Icon
}

// Icons holds shared icons.
type Icons struct {
	Star         IconPair `json:"star" yaml:"star"`
	StarUnfilled IconPair `json:"starUnfilled" yaml:"starUnfilled"`
}

// ConfigStore holds static default content and ordering configuration.
type ConfigStore struct {
	Header     Header
	Sections   map[SectionKey]SectionInfo
	Download   Downloads
	Order      OrderConfig
	ErrorLines []string
	PWA        PWAMessages
	Icons      Icons
}

type configWire struct {
	Header   Header                     `yaml:"header"`
	Download map[string]DownloadMessage `yaml:"download"`
	Order    map[string]int             `yaml:"order"`
	Errors   []string                   `yaml:"errors"`
	PWA      PWAMessages                `yaml:"pwa"`
	Icons    Icons                      `yaml:"icons"`
	Sections map[string]any             `yaml:"sections"`
}

// LoadConfigStore parses a YAML config document. Section bodies follow the
// JSON section shape, including the optional "kind" tag.
func LoadConfigStore(r io.Reader) (ConfigStore, error) {
	var wire configWire
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return ConfigStore{}, NewError(KindValidation, "decode profile config", err)
	}

	cfg := ConfigStore{
		Header:     wire.Header,
		Sections:   make(map[SectionKey]SectionInfo, len(wire.Sections)),
		Download:   make(Downloads, len(wire.Download)),
		Order:      OrderConfig(wire.Order),
		ErrorLines: wire.Errors,
		PWA:        wire.PWA,
		Icons:      wire.Icons,
	}
	for stage, msg := range wire.Download {
		cfg.Download[DownloadStage(stage)] = msg
	}
	for key, body := range wire.Sections {
		raw, err := json.Marshal(body)
		if err != nil {
			return ConfigStore{}, NewError(KindValidation, fmt.Sprintf("encode section %s", key), err)
		}
		var info SectionInfo
		if err := json.Unmarshal(raw, &info); err != nil {
			return ConfigStore{}, NewError(KindValidation, fmt.Sprintf("decode section %s", key), err)
		}
		cfg.Sections[SectionKey(key)] = info
	}
	if err := cfg.Validate(); err != nil {
		return ConfigStore{}, err
	}
	return cfg, nil
}

// DefaultConfigStore returns the embedded default content.
func DefaultConfigStore() (ConfigStore, error) {
	return LoadConfigStore(bytes.NewReader(defaultsYAML))
}

// Validate requires defaults for every fetched key.
func (c ConfigStore) Validate() error {
	if err := c.Header.Validate(); err != nil {
		return err
	}
	if err := c.Download.Validate(); err != nil {
		return err
	}
	for _, key := range RequiredSections {
		info, ok := c.Sections[key]
		if !ok {
			return NewError(KindValidation, fmt.Sprintf("missing default for section %s", key), nil)
		}
		if err := info.Validate(); err != nil {
			return NewError(KindValidation, fmt.Sprintf("invalid default for section %s", key), err)
		}
	}
	return nil
}

// DefaultSection returns the configured default for a section.
func (c ConfigStore) DefaultSection(key SectionKey) SectionInfo {
	return c.Sections[key].clone()
}
