// Package config assembles the ambient settings every command needs:
// working directory, home directory, and the environment-provided values
// that steer package installation. It is constructed once at process start
// and passed explicitly into each orchestration entry point.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults for the project template. Overridable via environment or the
// optional config file.
const (
	DefaultTemplateRepoURL = "https://github.com/statisticsnorway/ssb-project-template-stat"
	DefaultTemplateRef     = "1.0.0"
	DefaultOrgName         = "statisticsnorway"
)

// fileName is the optional per-user override file, relative to home.
const fileName = ".ssb-project/config.yaml"

// Config carries the resolved settings for one CLI invocation.
type Config struct {
	// WorkingDir is the directory the CLI was invoked from.
	WorkingDir string
	// HomeDir anchors error logs and the config file.
	HomeDir string
	// ImageSpec identifies the runtime image (JUPYTER_IMAGE_SPEC); used to
	// detect on-premises environments. Empty when unset.
	ImageSpec string
	// PipIndexURL is the package-index proxy used on-premises.
	PipIndexURL string
	// TemplateRepoURL and TemplateRef name the project template that
	// scaffolding and git-config validation are measured against.
	TemplateRepoURL string
	TemplateRef     string
	// OrgName is the hosting organization for scaffolded projects.
	OrgName string
}

// file mirrors the optional YAML override file. Empty fields keep the
// value resolved from the environment.
type file struct {
	PipIndexURL     string `yaml:"pip_index_url,omitempty"`
	TemplateRepoURL string `yaml:"template_repo_url,omitempty"`
	TemplateRef     string `yaml:"template_ref,omitempty"`
	OrgName         string `yaml:"org_name,omitempty"`
}

// Load resolves the configuration from the process environment, overlaid
// by the per-user config file when present.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	cfg := &Config{
		WorkingDir:      wd,
		HomeDir:         home,
		ImageSpec:       os.Getenv("JUPYTER_IMAGE_SPEC"),
		PipIndexURL:     os.Getenv("PIP_INDEX_URL"),
		TemplateRepoURL: envOr("STAT_TEMPLATE_REPO_URL", DefaultTemplateRepoURL),
		TemplateRef:     envOr("STAT_TEMPLATE_DEFAULT_REFERENCE", DefaultTemplateRef),
		OrgName:         DefaultOrgName,
	}

	if err := cfg.applyFile(filepath.Join(home, fileName)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays settings from the optional config file. A missing
// file is fine; a malformed one is an error the user should see.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if f.PipIndexURL != "" {
		c.PipIndexURL = f.PipIndexURL
	}
	if f.TemplateRepoURL != "" {
		c.TemplateRepoURL = f.TemplateRepoURL
	}
	if f.TemplateRef != "" {
		c.TemplateRef = f.TemplateRef
	}
	if f.OrgName != "" {
		c.OrgName = f.OrgName
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
