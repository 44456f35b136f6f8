package occbuild

import (
	"errors"
	"fmt"
	"strings"

	"github.com/magefile/mage/sh"
)

var (
	// ErrNativeBuild is matched by every failure of the kernel wrapper's
	// native build.
	ErrNativeBuild = errors.New("native build failed")

	// ErrUnknownAction is returned for actions the orchestrator does not
	// implement.
	ErrUnknownAction = errors.New("unknown action")
)

// NativeBuildError reports a failed make invocation in the kernel wrapper
// directory.  It is fatal: no extension is compiled after it.
type NativeBuildError struct {
	Dir     string
	Cmdline string
	Output  []string
	Err     error
}

func (e *NativeBuildError) Error() string {
	msg := fmt.Sprintf("%s in %s: %s: %v", ErrNativeBuild, e.Dir, e.Cmdline, e.Err)
	if len(e.Output) > 0 {
		msg += "\n\nBuild output:\n" + strings.Join(e.Output, "\n")
	}
	return msg
}

func (e *NativeBuildError) Unwrap() error {
	return e.Err
}

// Is matches ErrNativeBuild.
func (e *NativeBuildError) Is(target error) bool {
	return target == ErrNativeBuild
}

// ExitStatus returns the exit code of the failed make, never zero.
func (e *NativeBuildError) ExitStatus() int {
	if code := sh.ExitStatus(e.Err); code > 0 {
		return code
	}
	return 1
}
