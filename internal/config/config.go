// Package config loads paperfinder settings from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
	"gopkg.in/yaml.v3"
)

const (
	ConfigPathEnvVar  = "PAPERFINDER_CONFIG"
	BaseURLEnvVar     = "PAPERFINDER_BASE_URL"
	CatalogEnvVar     = "PAPERFINDER_CATALOG"
	ListenEnvVar      = "PAPERFINDER_LISTEN"
	MaxYearSpanEnvVar = "PAPERFINDER_MAX_YEAR_SPAN"

	DefaultCatalogPath         = "subjects.json"
	DefaultListenAddr          = ":8080"
	DefaultAddSubjectRateLimit = 1.0 // requests per second
	DefaultMarker              = "qp"
	DefaultDPI                 = 72.0
)

// Config is the full application configuration
type Config struct {
	BaseURL             string        `yaml:"base_url"`
	CatalogPath         string        `yaml:"catalog_path"`
	ListenAddr          string        `yaml:"listen_addr"`
	DefaultYearRange    string        `yaml:"default_year_range"`
	MaxYearSpan         int           `yaml:"max_year_span"`
	AddSubjectRateLimit float64       `yaml:"add_subject_rate_limit"`
	Convert             ConvertConfig `yaml:"convert"`
}

// ConvertConfig holds the PDF conversion defaults
type ConvertConfig struct {
	Marker  string  `yaml:"marker"`
	DPI     float64 `yaml:"dpi"`
	Workers int     `yaml:"workers"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		BaseURL:             papers.DefaultBaseURL,
		CatalogPath:         DefaultCatalogPath,
		ListenAddr:          DefaultListenAddr,
		DefaultYearRange:    papers.DefaultYearRange,
		MaxYearSpan:         papers.DefaultMaxYearSpan,
		AddSubjectRateLimit: DefaultAddSubjectRateLimit,
		Convert: ConvertConfig{
			Marker:  DefaultMarker,
			DPI:     DefaultDPI,
			Workers: 1,
		},
	}
}

// LoadDotEnv loads .env style files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration. An explicit path must exist; otherwise the
// path from PAPERFINDER_CONFIG or ~/.paperfinder/config.yaml is used when
// present. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
			// optional
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(BaseURLEnvVar)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(CatalogEnvVar)); v != "" {
		c.CatalogPath = v
	}
	if v := strings.TrimSpace(os.Getenv(ListenEnvVar)); v != "" {
		c.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv(MaxYearSpanEnvVar)); v != "" {
		span, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", MaxYearSpanEnvVar, err)
		}
		c.MaxYearSpan = span
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if strings.TrimSpace(c.CatalogPath) == "" {
		return fmt.Errorf("catalog_path must not be empty")
	}
	if c.Convert.DPI <= 0 {
		return fmt.Errorf("convert.dpi must be positive, got %v", c.Convert.DPI)
	}
	if c.Convert.Workers < 1 {
		return fmt.Errorf("convert.workers must be at least 1, got %d", c.Convert.Workers)
	}
	if c.AddSubjectRateLimit < 0 {
		return fmt.Errorf("add_subject_rate_limit must not be negative")
	}
	return nil
}

// defaultConfigPath returns the path to the optional config file
func defaultConfigPath() string {
	if customPath := os.Getenv(ConfigPathEnvVar); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".paperfinder", "config.yaml")
}
