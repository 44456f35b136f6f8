package occbuild

import (
	"fmt"
	"strings"

	"github.com/cli/safeexec"
)

// lookPath is replaced in tests.
var lookPath = safeexec.LookPath

// ToolChecker is an optional interface for builders that require external
// tools.
//
// Tool alternatives handle platform differences:
//   - Windows: cl (MSVC) instead of gcc, nmake instead of make
//   - macOS: clang by default
//   - Linux: gcc/make by default
//
// # Consumer Usage
//
//	if checker, ok := builder.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return fmt.Errorf("build tools missing: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the list of tools this builder needs for the
	// given configuration.
	RequiredTools(config *BuildConfig) []ToolRequirement

	// CheckTools verifies that all required tools are available.
	//
	// Returns nil if all required tools are found, or an error describing
	// which tools are missing. Optional tools don't cause errors if missing.
	CheckTools(config *BuildConfig) error
}

// ToolRequirement describes a build tool dependency.
//
//	ToolRequirement{
//	    Name:         "c++",
//	    Alternatives: []string{"g++", "clang++"},
//	    Purpose:      "C++ compiler",
//	}
type ToolRequirement struct {
	// Name is the primary tool binary name (e.g., "make", "cython").
	Name string

	// Alternatives are tool names that can satisfy this requirement.
	Alternatives []string

	// Optional tools are checked but never fail the build.
	Optional bool

	// Purpose is a human-readable description of why this tool is needed.
	Purpose string
}

// CheckToolAvailable checks if a tool is available in the system PATH.
//
// The lookup uses safeexec, which never resolves to a binary in the
// current directory on Windows.
func CheckToolAvailable(tool string) error {
	if _, err := lookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// MissingTools returns the required tools of which neither the primary name
// nor any alternative can be found.
func MissingTools(requirements []ToolRequirement) []ToolRequirement {
	var missing []ToolRequirement

	for _, req := range requirements {
		found := CheckToolAvailable(req.Name) == nil

		for _, alt := range req.Alternatives {
			if found {
				break
			}
			found = CheckToolAvailable(alt) == nil
		}

		if !found && !req.Optional {
			missing = append(missing, req)
		}
	}

	return missing
}

// CheckRequiredTools verifies all required tools are available.
//
// # Error Format
//
// Single missing tool:
//
//	cython (Cython translator) not found in PATH
//
// Multiple missing tools:
//
//	missing required tools: make (Build automation tool), cython (Cython translator)
func CheckRequiredTools(requirements []ToolRequirement) error {
	return missingToolsError(MissingTools(requirements))
}

func missingToolsError(missing []ToolRequirement) error {
	if len(missing) == 0 {
		return nil
	}

	names := make([]string, 0, len(missing))
	for _, req := range missing {
		if req.Purpose != "" {
			names = append(names, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			names = append(names, req.Name)
		}
	}

	if len(names) == 1 {
		return fmt.Errorf("%s not found in PATH", names[0])
	}

	return fmt.Errorf("missing required tools: %s", strings.Join(names, ", "))
}

// toolNames returns the distinct primary names of the given requirements.
func toolNames(requirements []ToolRequirement) []string {
	names := make([]string, 0, len(requirements))
	for _, req := range requirements {
		names = append(names, req.Name)
	}
	return uniqueStrings(names)
}
