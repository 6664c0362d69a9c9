package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/statisticsnorway/ssb-project/internal/config"
	"github.com/statisticsnorway/ssb-project/internal/errlog"
	"github.com/statisticsnorway/ssb-project/internal/kernel"
	"github.com/statisticsnorway/ssb-project/internal/runner"
	"github.com/statisticsnorway/ssb-project/internal/ui"
)

// venvDirName is the virtual environment directory owned by a project.
const venvDirName = ".venv"

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <project-name>",
		Short: "Remove a project's virtual environment and Jupyter kernel",
		Args:  cobra.ExactArgs(1),
		RunE:  runClean,
	}
	cmd.Flags().Bool("yes", false, "Answer yes to confirmation prompts")
	return cmd
}

func runClean(cmd *cobra.Command, args []string) error {
	assumeYes, _ := cmd.Flags().GetBool("yes")
	return cleanProject(cmd.OutOrStdout(), cfg, run, args[0], assumeYes)
}

// cleanProject decommissions a project: virtual environment removal first,
// then kernel deregistration. Each action is gated by its own confirmation
// and a declined confirmation aborts with no partial action.
func cleanProject(out io.Writer, cfg *config.Config, r runner.Runner, projectName string, assumeYes bool) error {
	if err := removeVenv(out, cfg, assumeYes); err != nil {
		return err
	}
	return removeKernel(out, cfg, r, projectName, assumeYes)
}

// removeVenv deletes the project's virtual environment, looking in the
// current directory first and prompting for an alternate project path when
// nothing is found there. A missing virtual environment is reported and
// skipped, not treated as a failure.
func removeVenv(out io.Writer, cfg *config.Config, assumeYes bool) error {
	ok, err := confirm("Do you also wish to delete the virtual environment for this project?", assumeYes)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted: virtual environment removal declined")
	}

	venvPath := filepath.Join(cfg.WorkingDir, venvDirName)
	if isDir(venvPath) {
		return removeVenvDir(out, cfg, venvPath)
	}

	ui.Warn(out, "No virtual environment found in the current directory.")
	if assumeYes {
		// Non-interactive: nothing to remove here, nowhere to ask for.
		return nil
	}
	alt, err := promptValue("Path to the project whose virtual environment should be deleted", cfg.WorkingDir, nil)
	if err != nil {
		return err
	}
	alt = strings.TrimSpace(alt)
	if alt == "" {
		ui.Warn(out, "No path provided. Skipping...")
		return nil
	}
	altVenv := filepath.Join(alt, venvDirName)
	if !isDir(altVenv) {
		ui.Warn(out, "No virtual environment found at that path. Skipping...")
		return nil
	}
	return removeVenvDir(out, cfg, altVenv)
}

// removeVenvDir removes the directory recursively. Filesystem failures are
// fatal and leave a diagnostic record.
func removeVenvDir(out io.Writer, cfg *config.Config, path string) error {
	if err := os.RemoveAll(path); err != nil {
		ui.Fail(out, "Something went wrong while removing the virtual environment at %s.", path)
		if logPath, logErr := errlog.Write(cfg.HomeDir, "clean-virtualenv", err.Error()); logErr == nil {
			ui.Info(out, "Detailed error information saved to %s", logPath)
		}
		return fmt.Errorf("removing virtual environment: %w", err)
	}
	ui.Success(out, "Virtual environment successfully removed.")
	return nil
}

// removeKernel deregisters the project's kernel. The registry's removal is
// only trusted when it exits zero and its diagnostic output names the
// removed directory exactly; anything else is a failure.
func removeKernel(out io.Writer, cfg *config.Config, r runner.Runner, projectName string, assumeYes bool) error {
	kernels, err := kernel.List(r)
	if err != nil {
		return err
	}
	kernelDir, found := kernels[projectName]
	if !found {
		ui.Fail(out, "Could not find kernel %q. Is the project name spelled correctly?", projectName)
		return fmt.Errorf("kernel %q not found", projectName)
	}

	ok, err := confirm(fmt.Sprintf("Are you sure you want to delete the kernel %q? All other project files are left untouched.", projectName), assumeYes)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("aborted: kernel removal declined")
	}

	ui.Step(out, "Deleting kernel %s...", projectName)
	res, err := kernel.Remove(r, projectName)
	if err != nil {
		return err
	}

	stderrText := strings.TrimSpace(string(res.Stderr))
	if res.ExitCode != 0 || stderrText != kernel.RemovedMessage(kernelDir) {
		ui.Fail(out, "Something went wrong while removing the Jupyter kernel.")
		record := fmt.Sprintf("exit code: %d\n--- stdout ---\n%s\n--- stderr ---\n%s\n",
			res.ExitCode, res.Stdout, res.Stderr)
		if logPath, logErr := errlog.Write(cfg.HomeDir, "clean-kernel", record); logErr == nil {
			ui.Info(out, "Detailed error information saved to %s", logPath)
		}
		return fmt.Errorf("kernel registry did not confirm removal of %q", projectName)
	}

	ui.Success(out, "Deleted Jupyter kernel %s.", projectName)
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
