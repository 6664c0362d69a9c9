// Package poetry drives the dependency manager: virtual environment
// installs, kernel adapter installs, and lock file refreshes. Every call
// blocks until the underlying tool finishes; a non-zero exit is fatal and
// its captured output lands in an error log.
package poetry

import (
	"github.com/statisticsnorway/ssb-project/internal/runner"
)

// Install materializes or updates the project's virtual environment from
// the locked dependency graph. This can take minutes (network and
// compilation), so callers should announce the step before invoking it.
func Install(r runner.Runner, home, projectDir string) error {
	_, err := runner.Demand(r, home, projectDir, "poetry-install",
		"poetry", "install")
	return err
}

// InstallKernel installs the ipykernel adapter into the project's virtual
// environment and registers a user-level kernel named projectName with the
// kernel registry.
func InstallKernel(r runner.Runner, home, projectDir, projectName string) error {
	_, err := runner.Demand(r, home, projectDir, "install-ipykernel",
		"poetry", "run", "python3", "-m", "ipykernel", "install", "--user", "--name", projectName)
	return err
}

// LockNoUpdate refreshes the lock file without upgrading dependencies.
// Needed after a standalone source removal; skipped when a full install
// follows immediately, which re-resolves anyway.
func LockNoUpdate(r runner.Runner, home, projectDir string) error {
	_, err := runner.Demand(r, home, projectDir, "poetry-lock",
		"poetry", "lock", "--no-update")
	return err
}
