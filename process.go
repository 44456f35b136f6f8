package occbuild

import (
	"context"
	"os"
	"os/exec"
	"strings"
)

// Command is a single toolchain invocation.
type Command struct {
	Dir  string   // Working directory, empty means the current one
	Env  []string // Additions to the inherited environment
	Name string   // Program name or path
	Args []string
}

// Cmdline returns the full command line to be executed
func (c Command) Cmdline() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes toolchain commands and returns their combined output
// split into lines.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]string, error)
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run starts the command and waits for it to exit.  A non-zero exit is
// reported as an *exec.ExitError.
func (ExecRunner) Run(ctx context.Context, c Command) ([]string, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)

	output, err := cmd.CombinedOutput()
	return splitLines(output), err
}

func splitLines(output []byte) []string {
	text := strings.TrimRight(string(output), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
