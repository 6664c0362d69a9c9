package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/statisticsnorway/ssb-project/internal/config"
	"github.com/statisticsnorway/ssb-project/internal/runner"
	"github.com/statisticsnorway/ssb-project/internal/testutil"
)

// fakeVerifier scripts the git-config gate.
type fakeVerifier struct {
	global, local bool
	name, email   string

	resetCalled    bool
	identityCalled bool
}

func (v *fakeVerifier) ValidateGlobal() (bool, error) { return v.global, nil }

func (v *fakeVerifier) ValidateLocal(_, _, _ string) (bool, error) { return v.local, nil }

func (v *fakeVerifier) GlobalIdentity() (string, string, error) { return v.name, v.email, nil }

func (v *fakeVerifier) ResetProjectDefaults(_ string) error {
	v.resetCalled = true
	return nil
}

func (v *fakeVerifier) SetGlobalIdentity(_, _ string) error {
	v.identityCalled = true
	return nil
}

// stubConfirm replaces the confirmation prompt for one test.
func stubConfirm(t *testing.T, answer bool) {
	t.Helper()
	orig := confirm
	confirm = func(title string, assumeYes bool) (bool, error) {
		if assumeYes {
			return true, nil
		}
		return answer, nil
	}
	t.Cleanup(func() { confirm = orig })
}

// stubPromptValue replaces the input prompt for one test.
func stubPromptValue(t *testing.T, value string) {
	t.Helper()
	orig := promptValue
	promptValue = func(title, placeholder string, validate func(string) error) (string, error) {
		return value, nil
	}
	t.Cleanup(func() { promptValue = orig })
}

// testConfig points working dir and home at temp directories.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		WorkingDir:      t.TempDir(),
		HomeDir:         t.TempDir(),
		TemplateRepoURL: config.DefaultTemplateRepoURL,
		TemplateRef:     config.DefaultTemplateRef,
		OrgName:         config.DefaultOrgName,
	}
}

// writeProject drops a minimal valid pyproject.toml into dir.
func writeProject(t *testing.T, dir, name string) {
	t.Helper()
	content := fmt.Sprintf("[tool.poetry]\nname = %q\nversion = \"0.1.0\"\n", name)
	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// writeKernel creates a kernel directory with an unpatched launch
// descriptor and returns its path.
func writeKernel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	doc := map[string]any{
		"argv":         []string{"/opt/venvs/proj/bin/python3", "-m", "ipykernel_launcher", "-f", "{connection_file}"},
		"display_name": "proj",
		"language":     "python",
	}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "kernel.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// buildScript fakes the subprocess surface of a successful build: poetry
// succeeds silently and the kernel registry lists the given kernels.
func buildScript(kernels map[string]string) func(dir, name string, args ...string) (runner.Result, error) {
	return func(dir, name string, args ...string) (runner.Result, error) {
		if name == "jupyter" && len(args) > 1 && args[0] == "kernelspec" && args[1] == "list" {
			var b strings.Builder
			b.WriteString("Available kernels:\n")
			for k, v := range kernels {
				fmt.Fprintf(&b, "  %s  %s\n", k, v)
			}
			return runner.Result{Stdout: []byte(b.String())}, nil
		}
		return runner.Result{}, nil
	}
}

// commands flattens recorded invocations for assertions.
func commands(fake *testutil.FakeRunner) []string {
	cmds := make([]string, len(fake.Calls))
	for i, c := range fake.Calls {
		cmds[i] = c.Command()
	}
	return cmds
}
