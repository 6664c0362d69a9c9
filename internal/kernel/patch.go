package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// StartScriptName is the generated wrapper placed next to the launch
// descriptor. Its presence in argv marks a kernel as already patched.
const StartScriptName = "python.sh"

// interpreterPattern matches a direct interpreter invocation in argv, or a
// previously generated start script.
var interpreterPattern = regexp.MustCompile(`^.*(?:/python3|/python|/python\.sh)$`)

// connectionFilePlaceholder is substituted by the kernel runtime at launch
// time and must be forwarded verbatim.
const connectionFilePlaceholder = "{connection_file}"

// PatchError means no entry in the descriptor's argv looked like an
// interpreter path, so there is nothing to wrap.
type PatchError struct {
	Descriptor string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("cannot locate an interpreter path in the argv of %s", e.Descriptor)
}

// AttachStartScript rewrites the kernel's launch descriptor to start the
// interpreter through a generated start script that sources the user's
// shell initialization first. kernels is the registry listing from List.
//
// It returns alreadyPatched=true without touching anything when the
// descriptor already points at a start script; re-running the patch is a
// supported no-op. All other precondition violations are fatal errors
// naming the missing artifact.
func AttachStartScript(name string, kernels map[string]string) (alreadyPatched bool, err error) {
	kernelDir, ok := kernels[name]
	if !ok {
		return false, fmt.Errorf("kernel %q is not registered in the kernel registry", name)
	}
	if _, err := os.Stat(kernelDir); err != nil {
		return false, fmt.Errorf("kernel directory %s does not exist", kernelDir)
	}
	descriptorPath := filepath.Join(kernelDir, DescriptorName)
	if _, err := os.Stat(descriptorPath); err != nil {
		return false, fmt.Errorf("launch descriptor %s does not exist", descriptorPath)
	}

	desc, err := LoadDescriptor(descriptorPath)
	if err != nil {
		return false, err
	}

	interpreter := findInterpreter(desc.Argv)
	if interpreter == "" {
		return false, &PatchError{Descriptor: descriptorPath}
	}
	if filepath.Base(interpreter) == StartScriptName {
		return true, nil
	}

	startScript := filepath.Join(kernelDir, StartScriptName)
	desc.Argv = []string{startScript, "-m", "ipykernel_launcher", "-f", connectionFilePlaceholder}
	if err := desc.Save(descriptorPath); err != nil {
		return false, err
	}
	if err := writeStartScript(startScript, interpreter); err != nil {
		return false, err
	}
	return false, nil
}

// findInterpreter returns the first argv entry that looks like an
// interpreter path, or empty string when there is none.
func findInterpreter(argv []string) string {
	for _, entry := range argv {
		if interpreterPattern.MatchString(entry) {
			return entry
		}
	}
	return ""
}

// writeStartScript generates the wrapper: shebang, shell-init sourcing,
// and an exec of the original interpreter with forwarded arguments. The
// notebook server may run the script as a different principal than the CLI
// invoker, so it is readable and executable by everyone and writable only
// by the owner.
func writeStartScript(path, interpreter string) error {
	content := fmt.Sprintf("#!/usr/bin/env bash\nsource $HOME/.bashrc\nexec %s \"$@\"\n", interpreter)
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing start script: %w", err)
	}
	// WriteFile only applies the mode on creation; force it on overwrite.
	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("setting start script permissions: %w", err)
	}
	return nil
}
