package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PROFILE_SERVER_PORT.
const EnvPrefix = "PROFILE"

// Config holds the profile application configuration.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Content  ContentConfig `mapstructure:"content"`
	PDF      PDFConfig     `mapstructure:"pdf"`
	Export   ExportConfig  `mapstructure:"export"`
	State    StateConfig   `mapstructure:"state"`
	Sessions SessionConfig `mapstructure:"sessions"`
	Install  InstallConfig `mapstructure:"install"`
	Features FeatureFlags  `mapstructure:"features"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	APIPath string `mapstructure:"api_path"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Content source types.
const (
	SourceDefaults = "defaults"
	SourceFS       = "fs"
	SourceHTTP     = "http"
	SourceBun      = "bun"
)

// ContentConfig selects where section payloads come from.
type ContentConfig struct {
	Source       string        `mapstructure:"source"`
	Dir          string        `mapstructure:"dir"`
	URL          string        `mapstructure:"url"`
	DSN          string        `mapstructure:"dsn"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	ConfigFile   string        `mapstructure:"config_file"`
}

// PDF engines.
const (
	EngineChromium    = "chromium"
	EngineWKHTMLTOPDF = "wkhtmltopdf"
)

// PDFConfig configures the HTML to PDF engine.
type PDFConfig struct {
	Engine   string        `mapstructure:"engine"`
	Path     string        `mapstructure:"path"`
	Headless bool          `mapstructure:"headless"`
	Args     []string      `mapstructure:"args"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize string        `mapstructure:"page_size"`
	BaseURL  string        `mapstructure:"base_url"`
}

// ExportConfig holds export artifact settings.
type ExportConfig struct {
	ArtifactDir    string        `mapstructure:"artifact_dir"`
	MaxAge         time.Duration `mapstructure:"max_age"`
	CleanupOnStart bool          `mapstructure:"cleanup_on_start"`
	CacheSize      int           `mapstructure:"cache_size"`
}

// StateConfig selects the persistent state store. DSN wins over File.
type StateConfig struct {
	File string `mapstructure:"file"`
	DSN  string `mapstructure:"dsn"`
}

// SessionConfig bounds the per-visitor session cache.
type SessionConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// InstallConfig describes the install prompt available to the server.
type InstallConfig struct {
	Supported bool `mapstructure:"supported"`
	Accept    bool `mapstructure:"accept"`
}

// FeatureFlags toggles optional features.
type FeatureFlags struct {
	EnableCORS      bool `mapstructure:"enable_cors"`
	EnableClipboard bool `mapstructure:"enable_clipboard"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:    "localhost",
			Port:    "8080",
			APIPath: "/api",
		},
		Content: ContentConfig{
			Source:       SourceDefaults,
			Dir:          "./content",
			FetchTimeout: 10 * time.Second,
		},
		PDF: PDFConfig{
			Engine:   EngineChromium,
			Headless: true,
			Timeout:  30 * time.Second,
			PageSize: "A4",
		},
		Export: ExportConfig{
			ArtifactDir:    "./artifacts",
			MaxAge:         7 * 24 * time.Hour,
			CleanupOnStart: true,
			CacheSize:      32,
		},
		State: StateConfig{
			File: "./profile-state.json",
		},
		Sessions: SessionConfig{
			CacheSize: 1024,
		},
		Install: InstallConfig{
			Supported: true,
			Accept:    true,
		},
		Features: FeatureFlags{
			EnableCORS: true,
		},
	}
}

// Validate checks the values the application cannot recover from.
func (c Config) Validate() error {
	var errs []error
	switch c.Content.Source {
	case SourceDefaults:
	case SourceFS:
		if c.Content.Dir == "" {
			errs = append(errs, errors.New("content.dir is required for the fs source"))
		}
	case SourceHTTP:
		if c.Content.URL == "" {
			errs = append(errs, errors.New("content.url is required for the http source"))
		}
	case SourceBun:
		if c.Content.DSN == "" {
			errs = append(errs, errors.New("content.dsn is required for the bun source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown content source %q", c.Content.Source))
	}
	switch c.PDF.Engine {
	case "", EngineChromium, EngineWKHTMLTOPDF:
	default:
		errs = append(errs, fmt.Errorf("unknown pdf engine %q", c.PDF.Engine))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Content.FetchTimeout < 0 || c.PDF.Timeout < 0 || c.Export.MaxAge < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads the configuration. Defaults are overridden by the config file
// (when found) and then by PROFILE_* environment variables. An empty path
// searches for profile.{yaml,json,toml} in the working directory and $HOME.
func Load(path string) (Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (Config, error) {
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("profile")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.api_path", d.Server.APIPath)

	v.SetDefault("content.source", d.Content.Source)
	v.SetDefault("content.dir", d.Content.Dir)
	v.SetDefault("content.url", d.Content.URL)
	v.SetDefault("content.dsn", d.Content.DSN)
	v.SetDefault("content.fetch_timeout", d.Content.FetchTimeout)
	v.SetDefault("content.config_file", d.Content.ConfigFile)

	v.SetDefault("pdf.engine", d.PDF.Engine)
	v.SetDefault("pdf.path", d.PDF.Path)
	v.SetDefault("pdf.headless", d.PDF.Headless)
	v.SetDefault("pdf.args", d.PDF.Args)
	v.SetDefault("pdf.timeout", d.PDF.Timeout)
	v.SetDefault("pdf.page_size", d.PDF.PageSize)
	v.SetDefault("pdf.base_url", d.PDF.BaseURL)

	v.SetDefault("export.artifact_dir", d.Export.ArtifactDir)
	v.SetDefault("export.max_age", d.Export.MaxAge)
	v.SetDefault("export.cleanup_on_start", d.Export.CleanupOnStart)
	v.SetDefault("export.cache_size", d.Export.CacheSize)

	v.SetDefault("state.file", d.State.File)
	v.SetDefault("state.dsn", d.State.DSN)

	v.SetDefault("sessions.cache_size", d.Sessions.CacheSize)

	v.SetDefault("install.supported", d.Install.Supported)
	v.SetDefault("install.accept", d.Install.Accept)

	v.SetDefault("features.enable_cors", d.Features.EnableCORS)
	v.SetDefault("features.enable_clipboard", d.Features.EnableClipboard)
}
