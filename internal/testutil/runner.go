// Package testutil provides shared test fixtures.
package testutil

import (
	"strings"

	"github.com/statisticsnorway/ssb-project/internal/runner"
)

// Call records a single invocation made through a FakeRunner.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// Command returns the invocation as a single space-joined string.
func (c Call) Command() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// FakeRunner is a runner.Runner that records invocations instead of
// spawning processes. Script, when set, decides the result per call;
// otherwise every call succeeds with empty output.
type FakeRunner struct {
	Calls  []Call
	Script func(dir, name string, args ...string) (runner.Result, error)
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(dir, name string, args ...string) (runner.Result, error) {
	f.Calls = append(f.Calls, Call{Dir: dir, Name: name, Args: args})
	if f.Script != nil {
		return f.Script(dir, name, args...)
	}
	return runner.Result{}, nil
}
