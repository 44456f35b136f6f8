package occbuild

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

var (
	globCacheMu sync.Mutex
	globCache   = map[string]glob.Glob{}
)

func compileGlob(pattern string) (glob.Glob, error) {
	globCacheMu.Lock()
	defer globCacheMu.Unlock()

	if g, ok := globCache[pattern]; ok {
		return g, nil
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, err
	}
	globCache[pattern] = g
	return g, nil
}

// MatchesPattern checks if a filename matches any of the given glob
// patterns.
//
// Patterns use shell syntax ("*.pyx", "{Makefile,GNUmakefile}"); '*' does
// not cross a '/'.  Invalid patterns are silently skipped.
//
// # Example
//
//	if MatchesPattern(filename, "*.pyx", "*.py") {
//	    // Handle a Cython source
//	}
func MatchesPattern(filename string, patterns ...string) bool {
	for _, pattern := range patterns {
		g, err := compileGlob(pattern)
		if err != nil {
			continue
		}
		if g.Match(filename) {
			return true
		}
	}
	return false
}

// MatchesExtension checks if a filename has any of the given extensions.
//
// This is a case-insensitive check for file extensions.
// Useful for checking compiled module files (.so, .pyd, .dll).
func MatchesExtension(filename string, extensions ...string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// BuildError creates a standardized build error with output context.
//
// # Format
//
// With error and output:
//
//	Cython build failed: exit status 1
//
//	Build output:
//	occmodel.pyx:12:4: undeclared name not builtin: foo
//
// With error but no output:
//
//	Cython build failed: exit status 1
func BuildError(builder string, output []string, err error) error {
	outputStr := strings.Join(output, "\n")

	var prefix string
	if err != nil {
		prefix = fmt.Sprintf("%s build failed: %v", builder, err)
	} else {
		prefix = fmt.Sprintf("%s build failed", builder)
	}

	if outputStr != "" {
		return fmt.Errorf("%s\n\nBuild output:\n%s", prefix, outputStr)
	}

	return fmt.Errorf("%s", prefix)
}
