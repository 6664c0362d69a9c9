package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/statisticsnorway/ssb-project/internal/errlog"
	"github.com/statisticsnorway/ssb-project/internal/kernel"
	"github.com/statisticsnorway/ssb-project/internal/runner"
	"github.com/statisticsnorway/ssb-project/internal/testutil"
)

// cleanScript answers kernelspec list with kernels and kernelspec remove
// with removeStderr on the registry's behalf.
func cleanScript(kernels map[string]string, removeStderr string) func(dir, name string, args ...string) (runner.Result, error) {
	list := buildScript(kernels)
	return func(dir, name string, args ...string) (runner.Result, error) {
		if name == "jupyter" && len(args) > 0 && args[0] == "kernelspec" {
			if len(args) > 1 && args[1] == "list" {
				return list(dir, name, args...)
			}
			if len(args) > 1 && args[1] == "remove" {
				return runner.Result{Stderr: []byte(removeStderr + "\n")}, nil
			}
		}
		return runner.Result{}, nil
	}
}

func TestCleanProject_declinedVenvAborts(t *testing.T) {
	cfg := testConfig(t)
	fake := &testutil.FakeRunner{}
	stubConfirm(t, false)

	var out bytes.Buffer
	err := cleanProject(&out, cfg, fake, "proj", false)
	if err == nil {
		t.Fatal("declining the confirmation should abort")
	}
	if len(fake.Calls) != 0 {
		t.Errorf("no subprocess should run after a declined confirmation, got %v", commands(fake))
	}
}

func TestCleanProject_missingKernel(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Mkdir(filepath.Join(cfg.WorkingDir, venvDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	fake := &testutil.FakeRunner{Script: cleanScript(map[string]string{"other": "/k/other"}, "")}

	var out bytes.Buffer
	err := cleanProject(&out, cfg, fake, "proj", true)
	if err == nil {
		t.Fatal("expected error for a kernel that is not registered")
	}
	for _, c := range commands(fake) {
		if strings.Contains(c, "remove") {
			t.Errorf("removal must not run for an unknown kernel, got %v", commands(fake))
		}
	}
}

func TestCleanProject_success(t *testing.T) {
	cfg := testConfig(t)
	venv := filepath.Join(cfg.WorkingDir, venvDirName)
	if err := os.Mkdir(venv, 0o755); err != nil {
		t.Fatal(err)
	}
	kernelDir := "/home/user/.local/share/jupyter/kernels/proj"
	fake := &testutil.FakeRunner{
		Script: cleanScript(map[string]string{"proj": kernelDir}, kernel.RemovedMessage(kernelDir)),
	}

	var out bytes.Buffer
	if err := cleanProject(&out, cfg, fake, "proj", true); err != nil {
		t.Fatalf("cleanProject: %v", err)
	}
	if _, err := os.Stat(venv); !os.IsNotExist(err) {
		t.Error("virtual environment directory should be removed")
	}
	want := []string{
		"jupyter kernelspec list",
		"jupyter kernelspec remove -f proj",
	}
	got := commands(fake)
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("commands = %v, want %v", got, want)
	}
}

func TestCleanProject_unconfirmedRemovalFails(t *testing.T) {
	cfg := testConfig(t)
	if err := os.Mkdir(filepath.Join(cfg.WorkingDir, venvDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	kernelDir := "/home/user/.local/share/jupyter/kernels/proj"
	fake := &testutil.FakeRunner{
		Script: cleanScript(map[string]string{"proj": kernelDir}, "something else entirely"),
	}

	var out bytes.Buffer
	err := cleanProject(&out, cfg, fake, "proj", true)
	if err == nil {
		t.Fatal("expected error when the registry does not confirm removal")
	}

	entries, err := os.ReadDir(errlog.Dir(cfg.HomeDir))
	if err != nil {
		t.Fatalf("reading error log directory: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "clean-kernel-error-") {
			found = true
		}
	}
	if !found {
		t.Error("a clean-kernel error log should be written")
	}
}

func TestRemoveVenv_alternatePathNotFoundSkips(t *testing.T) {
	cfg := testConfig(t)
	stubConfirm(t, true)
	stubPromptValue(t, filepath.Join(cfg.WorkingDir, "elsewhere"))

	var out bytes.Buffer
	if err := removeVenv(&out, cfg, false); err != nil {
		t.Fatalf("a missing virtual environment is not a failure: %v", err)
	}
	if !strings.Contains(out.String(), "Skipping") {
		t.Errorf("output should report the skip, got %q", out.String())
	}
}

func TestRemoveVenv_alternatePath(t *testing.T) {
	cfg := testConfig(t)
	alt := t.TempDir()
	venv := filepath.Join(alt, venvDirName)
	if err := os.Mkdir(venv, 0o755); err != nil {
		t.Fatal(err)
	}
	stubConfirm(t, true)
	stubPromptValue(t, alt)

	var out bytes.Buffer
	if err := removeVenv(&out, cfg, false); err != nil {
		t.Fatalf("removeVenv: %v", err)
	}
	if _, err := os.Stat(venv); !os.IsNotExist(err) {
		t.Error("virtual environment at the alternate path should be removed")
	}
}
