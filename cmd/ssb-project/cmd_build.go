package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/statisticsnorway/ssb-project/internal/config"
	"github.com/statisticsnorway/ssb-project/internal/environ"
	"github.com/statisticsnorway/ssb-project/internal/gitconfig"
	"github.com/statisticsnorway/ssb-project/internal/kernel"
	"github.com/statisticsnorway/ssb-project/internal/manifest"
	"github.com/statisticsnorway/ssb-project/internal/poetry"
	"github.com/statisticsnorway/ssb-project/internal/runner"
	"github.com/statisticsnorway/ssb-project/internal/ui"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [path]",
		Short: "Create the virtual environment and Jupyter kernel for a project",
		Long: `Installs the project's locked dependencies into a virtual environment,
registers a Jupyter kernel named after the project, and patches the kernel
to source shell initialization before starting. Runs in the current folder
when no path is supplied.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runBuild,
	}
	cmd.Flags().Bool("no-verify", false, "Skip Git configuration verification")
	cmd.Flags().Bool("yes", false, "Answer yes to confirmation prompts")
	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	noVerify, _ := cmd.Flags().GetBool("no-verify")
	assumeYes, _ := cmd.Flags().GetBool("yes")
	return buildProject(cmd.OutOrStdout(), cfg, run, verifier, path, !noVerify, assumeYes)
}

// buildProject provisions a project's execution environment: dependency
// install, kernel registration, and kernel launch patching, gated by the
// Git configuration verifier and steered by on-prem detection.
func buildProject(out io.Writer, cfg *config.Config, r runner.Runner, v gitconfig.Verifier, path string, verifyConfig, assumeYes bool) error {
	projectDir := cfg.WorkingDir
	if path != "" {
		if filepath.IsAbs(path) {
			projectDir = filepath.Clean(path)
		} else {
			projectDir = filepath.Join(cfg.WorkingDir, path)
		}
	}
	projectName := filepath.Base(projectDir)

	if !manifest.Exists(projectDir) {
		ui.Fail(out, "Project directory %s is not a valid project, %s is missing.", projectDir, manifest.FileName)
		return fmt.Errorf("%s not found in %s", manifest.FileName, projectDir)
	}
	if declared, err := manifest.ProjectName(projectDir); err == nil && declared != "" && declared != projectName {
		ui.Warn(out, "Directory name %q differs from the name declared in %s (%q); the kernel is named after the directory", projectName, manifest.FileName, declared)
	}

	if verifyConfig {
		if err := verifyGitConfig(out, cfg, v, projectDir, assumeYes); err != nil {
			return err
		}
	}

	if err := configureProxySource(out, cfg, r, projectDir); err != nil {
		return err
	}

	ui.Step(out, "Installing dependencies... This may take a few minutes")
	if err := poetry.Install(r, cfg.HomeDir, projectDir); err != nil {
		ui.Fail(out, "Something went wrong when installing packages with Poetry.")
		return err
	}
	ui.Success(out, "Installed dependencies in the virtual environment")

	ui.Step(out, "Installing Jupyter kernel...")
	if err := poetry.InstallKernel(r, cfg.HomeDir, projectDir, projectName); err != nil {
		ui.Fail(out, "Something went wrong while installing the Jupyter kernel.")
		return err
	}
	ui.Success(out, "Installed Jupyter kernel (%s)", projectName)

	kernels, err := kernel.List(r)
	if err != nil {
		return err
	}
	alreadyPatched, err := kernel.AttachStartScript(projectName, kernels)
	if err != nil {
		ui.Fail(out, "Could not mount .bashrc: %v", err)
		return err
	}
	if alreadyPatched {
		ui.Warn(out, ".bashrc should already be mounted in your kernel; if in doubt, run 'clean' followed by 'build'")
		return nil
	}
	ui.Success(out, "Mounted .bashrc in the kernel start script")
	return nil
}

// verifyGitConfig gates the build on the verifier's verdict. When the
// configuration falls short the user may confirm a reset to the
// recommended defaults; declining keeps the existing configuration and the
// build proceeds.
func verifyGitConfig(out io.Writer, cfg *config.Config, v gitconfig.Verifier, projectDir string, assumeYes bool) error {
	validGlobal, err := v.ValidateGlobal()
	if err != nil {
		// Unreadable configuration counts as invalid, not as a hard stop.
		validGlobal = false
	}
	validLocal, err := v.ValidateLocal(cfg.TemplateRepoURL, cfg.TemplateRef, projectDir)
	if err != nil {
		validLocal = false
	}
	if validGlobal && validLocal {
		return nil
	}

	ui.Fail(out, "Your project's Git configuration does not follow the recommendations,")
	ui.Fail(out, "which may result in sensitive data being pushed to GitHub.")

	ok, err := confirm("Reset your Git configuration to the recommended defaults?", assumeYes)
	if err != nil {
		return err
	}
	if !ok {
		ui.Warn(out, "Keeping your existing Git configuration.")
		return nil
	}

	if !validLocal {
		if err := v.ResetProjectDefaults(projectDir); err != nil {
			return err
		}
		ui.Success(out, "Wrote recommended .gitignore and .gitattributes")
	}
	if !validGlobal {
		name, email, err := promptIdentity()
		if err != nil {
			return err
		}
		if err := v.SetGlobalIdentity(name, email); err != nil {
			return err
		}
		ui.Success(out, "Configured Git commit identity")
	}
	return nil
}

// promptIdentity collects a commit identity for the global Git config.
func promptIdentity() (name, email string, err error) {
	name, err = promptValue("Enter full name", "Ola Nordmann", func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("name is required")
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	email, err = promptValue("Enter email", "ola@example.com", func(s string) error {
		if !strings.Contains(s, "@") {
			return fmt.Errorf("invalid email address")
		}
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(name), strings.TrimSpace(email), nil
}

// configureProxySource toggles the package-index proxy source in the
// project manifest based on the detected environment. On-premises installs
// must route through the proxy; elsewhere a leftover proxy source would
// break installs and is removed. Lock refresh after removal is skipped
// on-prem because the following install re-resolves anyway.
func configureProxySource(out io.Writer, cfg *config.Config, r runner.Runner, projectDir string) error {
	includes, err := manifest.IncludesSource(projectDir)
	if err != nil {
		return err
	}

	if environ.RunningOnPrem(cfg.ImageSpec) {
		ui.Info(out, "Detected on-prem environment, using proxy for package installation")
		if cfg.PipIndexURL == "" {
			return fmt.Errorf("on-prem environment detected but PIP_INDEX_URL is not set")
		}
		if includes {
			if err := manifest.RemoveSource(projectDir); err != nil {
				return err
			}
		}
		return manifest.AddSource(projectDir, cfg.PipIndexURL)
	}

	if includes {
		ui.Info(out, "Detected non-onprem environment, removing proxy for package installation")
		if err := manifest.RemoveSource(projectDir); err != nil {
			return err
		}
		ui.Step(out, "Refreshing lock file...")
		if err := poetry.LockNoUpdate(r, cfg.HomeDir, projectDir); err != nil {
			return err
		}
	}
	return nil
}
