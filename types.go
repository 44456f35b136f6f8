package occbuild

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
)

// BuildResult contains the output and status of a build operation.
//
// After a build completes, this structure provides:
//   - Success status indicating if the build completed without errors
//   - Output lines captured from the toolchain (stdout/stderr)
//   - Extensions list of produced files, relative to the source root
//   - Error information if the build failed
type BuildResult struct {
	Name                string   // Name of the extension or archive that was built
	Success             bool     // True if build completed successfully
	Skipped             bool     // True if the target was up to date
	Output              []string // Lines of output from the build process
	Extensions          []string // Paths to built files
	Error               error    // Error if build failed, nil otherwise
	MissingDependencies []string // Names of build-time tools that were missing
}

// BuildConfig contains configuration for the build process.
//
// Source paths:
//   - SourceDir: Root of the occmodel checkout
//   - BuildDir: Directory receiving temporary objects and built modules
//   - DistDir: Directory receiving source distributions
//
// Toolchain:
//   - Make, CC, CXX, Cython, Python: programs to invoke, empty means the
//     platform default
//   - CFlags, LDFlags: extra flags appended to every compile and link
//
// Build behavior:
//   - Force: Rebuild extensions even when they are up to date
//   - Inplace: Copy built modules next to the sources
//   - StopOnFailure: Stop after the first failed extension
type BuildConfig struct {
	// Source paths
	SourceDir string // Absolute root of the checkout
	BuildDir  string // Build output directory, defaults to <SourceDir>/build
	DistDir   string // Source distribution directory, defaults to <SourceDir>/dist

	// Target platform
	Platform Platform

	// Toolchain programs
	Make   string // make program, $MAKE or platform default when empty
	CC     string // C compiler
	CXX    string // C++ compiler
	Cython string // Cython translator
	Python string // Python interpreter used for discovery

	// Extra toolchain flags
	CFlags  []string
	LDFlags []string
	Env     map[string]string // Environment variables for every command

	// Kernel overrides
	Kernel KernelConfig

	// Build options
	Verbose    bool // Enable verbose output
	CleanFirst bool // Run make clean before building the kernel archive
	Force      bool // Rebuild regardless of timestamps
	Inplace    bool // Copy modules into the source root after building
	Parallel   int  // Number of parallel jobs (for make -j)

	// Failure handling
	StopOnFailure bool // Stop after the first failed extension build

	// PythonInfo caches the interpreter layout; discovered on demand when nil.
	PythonInfo *PythonInfo

	// Runner executes toolchain commands; nil means ExecRunner.
	Runner Runner
}

// NewBuildConfig returns a configuration for the given source root with the
// defaults for the host platform.  A relative root is made absolute against
// the working directory, since toolchain commands run inside it.
func NewBuildConfig(sourceDir string) *BuildConfig {
	if abs, err := filepath.Abs(sourceDir); err == nil {
		sourceDir = abs
	}

	return &BuildConfig{
		SourceDir:     sourceDir,
		Platform:      PlatformFromGOOS(runtime.GOOS),
		StopOnFailure: true,
	}
}

// CommonBuildSteps defines the configure/build/find pattern shared by the
// builders.
//
//  1. Configure: prepare inputs (translate .pyx sources, nothing for make)
//  2. Build: run the compiler/linker or make
//  3. Find: locate the produced files
type CommonBuildSteps struct {
	// ConfigureFunc prepares the build (e.g., run cython)
	ConfigureFunc func(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) error

	// BuildFunc compiles the target (e.g., run make, compile and link)
	BuildFunc func(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) error

	// FindFunc locates the produced files after the build completes
	FindFunc func(config *BuildConfig, ext *Extension) ([]string, error)
}

// Resolve returns p joined to the source root unless it is already absolute.
func (c *BuildConfig) Resolve(p string) string {
	if filepath.IsAbs(p) || isWindowsAbs(p) {
		return p
	}
	return filepath.Join(c.SourceDir, filepath.FromSlash(p))
}

// PlatformTag names the per-platform build subdirectories, e.g. linux-amd64.
func (c *BuildConfig) PlatformTag() string {
	return fmt.Sprintf("%s-%s", c.Platform, runtime.GOARCH)
}

func (c *BuildConfig) buildRoot() string {
	if c.BuildDir != "" {
		return c.Resolve(c.BuildDir)
	}
	return filepath.Join(c.SourceDir, "build")
}

// TempDir is where generated sources and object files are written.
func (c *BuildConfig) TempDir() string {
	return filepath.Join(c.buildRoot(), "temp."+c.PlatformTag())
}

// LibDir is where linked extension modules are written.
func (c *BuildConfig) LibDir() string {
	return filepath.Join(c.buildRoot(), "lib."+c.PlatformTag())
}

// DistPath is where source distributions are written.
func (c *BuildConfig) DistPath() string {
	if c.DistDir != "" {
		return c.Resolve(c.DistDir)
	}
	return filepath.Join(c.SourceDir, "dist")
}

func (c *BuildConfig) runner() Runner {
	if c.Runner == nil {
		return ExecRunner{}
	}
	return c.Runner
}

// environ returns the configured environment additions as KEY=VALUE pairs.
func (c *BuildConfig) environ() []string {
	env := make([]string, 0, len(c.Env))
	for key, value := range c.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env
}

// isWindowsAbs reports drive-letter paths such as C:\vs9include\oce, which
// filepath.IsAbs rejects on non-Windows hosts.
func isWindowsAbs(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}
