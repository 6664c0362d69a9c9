// Package kernel bridges the notebook kernel registry: listing installed
// kernels, removing them, and patching a kernel's launch descriptor so the
// interpreter starts through a generated start script.
package kernel

import (
	"fmt"
	"strings"

	"github.com/statisticsnorway/ssb-project/internal/runner"
)

// QueryError reports a failed kernel registry listing. The registry being
// unreachable means the environment is misconfigured, so it is fatal.
type QueryError struct {
	ExitCode int
	Stderr   string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("querying kernel registry: jupyter kernelspec list exited with code %d: %s",
		e.ExitCode, strings.TrimSpace(e.Stderr))
}

// List returns the installed kernels as a name → directory mapping by
// parsing the registry's tabular output. The first line is a header and is
// discarded; remaining lines are whitespace-normalized and must reduce to
// exactly two tokens, otherwise they are skipped.
func List(r runner.Runner) (map[string]string, error) {
	res, err := r.Run(".", "jupyter", "kernelspec", "list")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &QueryError{ExitCode: res.ExitCode, Stderr: string(res.Stderr)}
	}
	return parseList(string(res.Stdout)), nil
}

func parseList(out string) map[string]string {
	kernels := make(map[string]string)
	lines := strings.Split(out, "\n")
	if len(lines) > 0 {
		lines = lines[1:]
	}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		kernels[fields[0]] = fields[1]
	}
	return kernels
}

// Remove deregisters a kernel by name using the registry's force-removal
// facility. The raw result is returned so the caller can verify the
// registry's diagnostic output; the registry reports removal on stderr.
func Remove(r runner.Runner, name string) (runner.Result, error) {
	return r.Run(".", "jupyter", "kernelspec", "remove", "-f", name)
}

// RemovedMessage is the exact diagnostic line the registry emits on a
// successful removal. Anything else means the removal must not be trusted.
func RemovedMessage(dir string) string {
	return fmt.Sprintf("[RemoveKernelSpec] Removed %s", dir)
}
