package main

import (
	"fmt"
	"os/exec"
	"sort"

	"github.com/spf13/cobra"
	"github.com/statisticsnorway/ssb-project/internal/environ"
	"github.com/statisticsnorway/ssb-project/internal/kernel"
	"github.com/statisticsnorway/ssb-project/internal/ui"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment for common issues",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	ok := true

	// The tools the lifecycle commands shell out to.
	for _, tool := range []string{"poetry", "jupyter", "git", "cruft"} {
		fmt.Fprintf(out, "Checking %s... ", tool)
		path, err := exec.LookPath(tool)
		if err != nil {
			fmt.Fprintln(out, "NOT FOUND")
			ok = false
			continue
		}
		fmt.Fprintf(out, "found at %s\n", path)
	}

	if environ.RunningOnPrem(cfg.ImageSpec) {
		fmt.Fprintln(out, "Environment: on-prem (package installs go through the proxy index)")
		if cfg.PipIndexURL == "" {
			fmt.Fprintln(out, "  Warning: PIP_INDEX_URL is not set; builds will fail here")
			ok = false
		}
	} else {
		fmt.Fprintln(out, "Environment: open network")
	}
	fmt.Fprintf(out, "Template: %s@%s (organization %s)\n", cfg.TemplateRepoURL, cfg.TemplateRef, cfg.OrgName)

	kernels, err := kernel.List(run)
	if err != nil {
		fmt.Fprintf(out, "Kernel registry: UNAVAILABLE (%v)\n", err)
		ok = false
	} else {
		fmt.Fprintf(out, "Kernel registry: %d kernels installed\n", len(kernels))
		names := make([]string, 0, len(kernels))
		for name := range kernels {
			names = append(names, name)
		}
		sort.Strings(names)
		tbl := ui.NewTable(out, "NAME", "DIRECTORY")
		for _, name := range names {
			tbl.Row(name, kernels[name])
		}
		if err := tbl.Flush(); err != nil {
			return err
		}
	}

	if ok {
		fmt.Fprintln(out, "\nAll checks passed.")
		return nil
	}
	return fmt.Errorf("doctor checks failed")
}
