// Package gitconfig verifies that version-control configuration follows
// the organization's recommendations and applies the recommended defaults
// when asked. The build pipeline gates on its verdict.
package gitconfig

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/statisticsnorway/ssb-project/internal/runner"
)

//go:embed assets
var assets embed.FS

// Verifier is the contract the build pipeline depends on. Validation never
// mutates anything; the reset methods apply the recommended defaults and
// are only called after the user confirms.
type Verifier interface {
	ValidateGlobal() (bool, error)
	ValidateLocal(templateRepoURL, templateRef, projectDir string) (bool, error)
	GlobalIdentity() (name, email string, err error)
	ResetProjectDefaults(projectDir string) error
	SetGlobalIdentity(name, email string) error
}

// projectFiles are the per-project configuration files the recommendations
// require. Shipped as embedded defaults for remediation.
var projectFiles = []string{".gitignore", ".gitattributes"}

// Checker is the default Verifier. Global checks go through git itself;
// project checks inspect the working tree.
type Checker struct {
	Runner runner.Runner
}

// ValidateGlobal reports whether the global git configuration carries a
// commit identity. A missing gitconfig counts as invalid, not as an error.
func (c *Checker) ValidateGlobal() (bool, error) {
	name, email, err := c.GlobalIdentity()
	if err != nil {
		return false, err
	}
	return name != "" && email != "", nil
}

// ValidateLocal reports whether the project carries the required
// per-project configuration files. templateRepoURL and templateRef name
// the template the files are expected to originate from; this thin checker
// only verifies their presence.
func (c *Checker) ValidateLocal(templateRepoURL, templateRef, projectDir string) (bool, error) {
	for _, f := range projectFiles {
		info, err := os.Stat(filepath.Join(projectDir, f))
		if err != nil || info.IsDir() || info.Size() == 0 {
			return false, nil
		}
	}
	return true, nil
}

// GlobalIdentity returns the globally configured user.name and user.email.
// Unset elements come back empty.
func (c *Checker) GlobalIdentity() (name, email string, err error) {
	name, err = c.configGet("user.name")
	if err != nil {
		return "", "", err
	}
	email, err = c.configGet("user.email")
	if err != nil {
		return "", "", err
	}
	return name, email, nil
}

// configGet reads a single global config element. git exits non-zero when
// the key is unset; that is an empty value, not a failure.
func (c *Checker) configGet(key string) (string, error) {
	res, err := c.Runner.Run(".", "git", "config", "--global", "--get", key)
	if err != nil {
		return "", fmt.Errorf("reading git config %s: %w", key, err)
	}
	if res.ExitCode != 0 {
		return "", nil
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

// SetGlobalIdentity writes user.name and user.email to the global config.
func (c *Checker) SetGlobalIdentity(name, email string) error {
	for key, value := range map[string]string{"user.name": name, "user.email": email} {
		res, err := c.Runner.Run(".", "git", "config", "--global", key, value)
		if err != nil {
			return fmt.Errorf("setting git config %s: %w", key, err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("setting git config %s: git exited with code %d: %s",
				key, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
		}
	}
	return nil
}

// ResetProjectDefaults overwrites the project's configuration files with
// the recommended defaults.
func (c *Checker) ResetProjectDefaults(projectDir string) error {
	for _, f := range projectFiles {
		data, err := assets.ReadFile("assets/" + strings.TrimPrefix(f, "."))
		if err != nil {
			return fmt.Errorf("loading default %s: %w", f, err)
		}
		if err := os.WriteFile(filepath.Join(projectDir, f), data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f, err)
		}
	}
	return nil
}
