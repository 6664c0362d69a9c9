package kernel

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeDescriptor(t *testing.T, dir string, doc map[string]any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, DescriptorName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func unpatchedDescriptor() map[string]any {
	return map[string]any{
		"argv":         []string{"/home/user/proj/.venv/bin/python3", "-m", "ipykernel_launcher", "-f", "{connection_file}"},
		"display_name": "my-project",
		"language":     "python",
		"metadata":     map[string]any{"debugger": true},
	}
}

func TestAttachStartScript_patchesDescriptor(t *testing.T) {
	kernelDir := t.TempDir()
	descriptorPath := writeDescriptor(t, kernelDir, unpatchedDescriptor())
	kernels := map[string]string{"my-project": kernelDir}

	already, err := AttachStartScript("my-project", kernels)
	if err != nil {
		t.Fatalf("AttachStartScript: %v", err)
	}
	if already {
		t.Fatal("fresh kernel should not report already patched")
	}

	desc, err := LoadDescriptor(descriptorPath)
	if err != nil {
		t.Fatalf("LoadDescriptor: %v", err)
	}
	startScript := filepath.Join(kernelDir, StartScriptName)
	wantArgv := []string{startScript, "-m", "ipykernel_launcher", "-f", "{connection_file}"}
	if !reflect.DeepEqual(desc.Argv, wantArgv) {
		t.Errorf("argv = %v, want %v", desc.Argv, wantArgv)
	}

	script, err := os.ReadFile(startScript)
	if err != nil {
		t.Fatalf("reading start script: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(script), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("start script has %d lines, want 3:\n%s", len(lines), script)
	}
	if lines[0] != "#!/usr/bin/env bash" {
		t.Errorf("shebang = %q", lines[0])
	}
	if lines[1] != "source $HOME/.bashrc" {
		t.Errorf("shell init line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "exec /home/user/proj/.venv/bin/python3") {
		t.Errorf("exec line %q should exec the original interpreter", lines[2])
	}

	info, err := os.Stat(startScript)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o755 {
		t.Errorf("start script mode = %o, want 755", perm)
	}
}

func TestAttachStartScript_preservesOtherFields(t *testing.T) {
	kernelDir := t.TempDir()
	descriptorPath := writeDescriptor(t, kernelDir, unpatchedDescriptor())
	kernels := map[string]string{"my-project": kernelDir}

	if _, err := AttachStartScript("my-project", kernels); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(descriptorPath)
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["display_name"] != "my-project" {
		t.Errorf("display_name = %v", doc["display_name"])
	}
	if doc["language"] != "python" {
		t.Errorf("language = %v", doc["language"])
	}
	if _, ok := doc["metadata"]; !ok {
		t.Error("metadata field was dropped")
	}
}

func TestAttachStartScript_idempotent(t *testing.T) {
	kernelDir := t.TempDir()
	descriptorPath := writeDescriptor(t, kernelDir, unpatchedDescriptor())
	kernels := map[string]string{"my-project": kernelDir}

	if _, err := AttachStartScript("my-project", kernels); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(descriptorPath)
	if err != nil {
		t.Fatal(err)
	}

	already, err := AttachStartScript("my-project", kernels)
	if err != nil {
		t.Fatalf("second patch: %v", err)
	}
	if !already {
		t.Error("second patch should report already patched")
	}
	second, err := os.ReadFile(descriptorPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("descriptor changed on second patch")
	}
}

func TestAttachStartScript_picksFirstInterpreterMatch(t *testing.T) {
	kernelDir := t.TempDir()
	doc := unpatchedDescriptor()
	doc["argv"] = []string{"/usr/bin/env", "/opt/venvs/a/bin/python", "/opt/venvs/b/bin/python3"}
	writeDescriptor(t, kernelDir, doc)
	kernels := map[string]string{"my-project": kernelDir}

	if _, err := AttachStartScript("my-project", kernels); err != nil {
		t.Fatal(err)
	}
	script, err := os.ReadFile(filepath.Join(kernelDir, StartScriptName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(script), "exec /opt/venvs/a/bin/python ") {
		t.Errorf("start script should exec the first matching entry:\n%s", script)
	}
}

func TestAttachStartScript_noInterpreter(t *testing.T) {
	kernelDir := t.TempDir()
	doc := unpatchedDescriptor()
	doc["argv"] = []string{"julia", "--project", "-e", "start()"}
	writeDescriptor(t, kernelDir, doc)
	kernels := map[string]string{"my-project": kernelDir}

	_, err := AttachStartScript("my-project", kernels)
	if err == nil {
		t.Fatal("expected error when argv has no interpreter path")
	}
	var perr *PatchError
	if !errors.As(err, &perr) {
		t.Fatalf("error should be a PatchError, got %T", err)
	}
}

func TestAttachStartScript_preconditions(t *testing.T) {
	kernelDir := t.TempDir()

	// Kernel not in registry listing.
	if _, err := AttachStartScript("absent", map[string]string{}); err == nil {
		t.Error("expected error for unregistered kernel")
	}

	// Kernel directory missing on disk.
	gone := filepath.Join(kernelDir, "removed")
	if _, err := AttachStartScript("my-project", map[string]string{"my-project": gone}); err == nil {
		t.Error("expected error for missing kernel directory")
	}

	// Descriptor file missing.
	if _, err := AttachStartScript("my-project", map[string]string{"my-project": kernelDir}); err == nil {
		t.Error("expected error for missing launch descriptor")
	}

	// Descriptor without argv.
	writeDescriptor(t, kernelDir, map[string]any{"display_name": "x"})
	if _, err := AttachStartScript("my-project", map[string]string{"my-project": kernelDir}); err == nil {
		t.Error("expected error for descriptor without argv")
	}
}
