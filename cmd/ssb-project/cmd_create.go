package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/statisticsnorway/ssb-project/internal/config"
	"github.com/statisticsnorway/ssb-project/internal/gitconfig"
	"github.com/statisticsnorway/ssb-project/internal/runner"
	"github.com/statisticsnorway/ssb-project/internal/ui"
)

// projectNamePattern keeps project names usable as kernel names, directory
// names and package names.
var projectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name> [description]",
		Short: "Scaffold a new project from the organization template",
		Long: `Scaffolds a project from the organization's template, initializes a local
Git repository with an initial commit, and builds its execution
environment. Remote repository creation is not handled here.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runCreate,
	}
	cmd.Flags().Bool("no-build", false, "Skip building the environment after scaffolding")
	cmd.Flags().Bool("no-verify", false, "Skip Git configuration verification during the build")
	cmd.Flags().Bool("yes", false, "Answer yes to confirmation prompts")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	description := ""
	if len(args) == 2 {
		description = args[1]
	}
	noBuild, _ := cmd.Flags().GetBool("no-build")
	noVerify, _ := cmd.Flags().GetBool("no-verify")
	assumeYes, _ := cmd.Flags().GetBool("yes")
	return createProject(cmd.OutOrStdout(), cfg, run, verifier, name, description, !noBuild, !noVerify, assumeYes)
}

// createProject scaffolds a project directory from the template, creates a
// local Git repository with an initial commit, and chains into the build
// pipeline. Everything beyond the local working tree (remote repository,
// credentials) is out of scope.
func createProject(out io.Writer, cfg *config.Config, r runner.Runner, v gitconfig.Verifier, name, description string, build, verifyConfig, assumeYes bool) error {
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf("invalid project name %q: use letters, digits, '-' and '_' (no spaces)", name)
	}

	projectDir := filepath.Join(cfg.WorkingDir, name)
	if _, err := os.Stat(projectDir); err == nil {
		return fmt.Errorf("the directory %s already exists", projectDir)
	}

	fullName, email, err := commitIdentity(v)
	if err != nil {
		return err
	}

	if err := scaffold(r, cfg, name, description, fullName, email); err != nil {
		ui.Fail(out, "Something went wrong while scaffolding the project from the template.")
		return err
	}
	ui.Success(out, "Created project %s in %s", name, cfg.WorkingDir)

	if err := initLocalRepo(r, cfg, projectDir); err != nil {
		return err
	}
	ui.Success(out, "Initialized local Git repository")

	if !build {
		return nil
	}
	return buildProject(out, cfg, r, v, name, verifyConfig, assumeYes)
}

// commitIdentity takes the author identity for the template from the
// global Git configuration, prompting when it is not configured.
func commitIdentity(v gitconfig.Verifier) (name, email string, err error) {
	name, email, err = v.GlobalIdentity()
	if err != nil {
		return "", "", err
	}
	if name != "" && email != "" {
		return name, email, nil
	}
	return promptIdentity()
}

// scaffold materializes the template. The template tool owns the file
// copying; this is purely the subprocess contract.
func scaffold(r runner.Runner, cfg *config.Config, name, description, fullName, email string) error {
	context, err := json.Marshal(map[string]string{
		"project_name": name,
		"description":  description,
		"full_name":    fullName,
		"email":        email,
	})
	if err != nil {
		return fmt.Errorf("encoding template context: %w", err)
	}
	_, err = runner.Demand(r, cfg.HomeDir, cfg.WorkingDir, "cruft-create",
		"cruft", "create", cfg.TemplateRepoURL,
		"--checkout", cfg.TemplateRef,
		"--no-input",
		"--extra-context", string(context))
	return err
}

// initLocalRepo creates the project's Git repository with an initial
// commit on main.
func initLocalRepo(r runner.Runner, cfg *config.Config, projectDir string) error {
	steps := [][]string{
		{"init"},
		{"add", "-A"},
		{"commit", "-m", "Initial commit"},
		{"branch", "-M", "main"},
	}
	for _, args := range steps {
		if _, err := runner.Demand(r, cfg.HomeDir, projectDir, "git-"+args[0], "git", args...); err != nil {
			return err
		}
	}
	return nil
}
