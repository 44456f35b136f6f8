package occbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/contriboss/occbuild/log"
)

// Build tool constants
const (
	nmakeProgram = "nmake"
	makeProgram  = "make"
)

// MakefileBuilder runs the kernel wrapper's own Makefile.
//
// The wrapper directory carries a handwritten Makefile producing the static
// archive of the C++ wrapper sources.  It is run before any extension is
// compiled, and any non-zero exit aborts the build with a
// *NativeBuildError.
type MakefileBuilder struct{}

// Name returns the builder name
func (b *MakefileBuilder) Name() string {
	return "Makefile"
}

// RequiredTools returns the tools needed for Makefile builds
func (b *MakefileBuilder) RequiredTools(config *BuildConfig) []ToolRequirement {
	return []ToolRequirement{
		{
			Name:         b.getMakeProgram(config),
			Alternatives: []string{"gmake", makeProgram, nmakeProgram},
			Purpose:      "Build automation tool",
		},
		{
			Name:         "c++",
			Alternatives: []string{"g++", "clang++", "cl"},
			Purpose:      "C++ compiler for the kernel wrapper",
		},
	}
}

// CheckTools verifies that make and compiler are available
func (b *MakefileBuilder) CheckTools(config *BuildConfig) error {
	return CheckRequiredTools(b.RequiredTools(config))
}

// CanBuild checks if this builder can handle the target
func (b *MakefileBuilder) CanBuild(ext *Extension) bool {
	if len(ext.Sources) == 0 {
		return false
	}
	filename := strings.ToLower(filepath.Base(ext.Sources[0]))
	return MatchesPattern(filename, "makefile", "gnumakefile")
}

// Build runs make in the directory holding the Makefile
func (b *MakefileBuilder) Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
	return runCommonBuild(ctx, config, ext, CommonBuildSteps{
		ConfigureFunc: b.noConfigure,
		BuildFunc:     b.runMake,
		FindFunc:      b.findBuiltArchives,
	})
}

// Clean runs make clean; a missing clean target is not an error.
func (b *MakefileBuilder) Clean(ctx context.Context, config *BuildConfig, ext *Extension) error {
	dir := b.makeDir(config, ext)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	cmd := Command{
		Dir:  dir,
		Env:  config.environ(),
		Name: b.getMakeProgram(config),
		Args: []string{"clean"},
	}

	if _, err := config.runner().Run(ctx, cmd); err != nil {
		log.G(ctx).WithField("dir", dir).Debugf("ignoring failed clean: %v", err)
	}
	return nil
}

// noConfigure is a no-op since the Makefile is handwritten
func (b *MakefileBuilder) noConfigure(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) error {
	if config.Verbose {
		result.Output = append(result.Output, "Using existing Makefile, no configuration needed")
	}
	return nil
}

// runMake executes make to build the wrapper archive
func (b *MakefileBuilder) runMake(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) error {
	program := b.getMakeProgram(config)
	dir := b.makeDir(config, ext)

	var args []string
	if config.Parallel > 0 && program != nmakeProgram {
		args = append(args, fmt.Sprintf("-j%d", config.Parallel))
	}

	if config.CleanFirst {
		if err := b.Clean(ctx, config, ext); err != nil {
			return err
		}
	}

	cmd := Command{
		Dir:  dir,
		Env:  config.environ(),
		Name: program,
		Args: args,
	}

	log.G(ctx).WithField("dir", dir).Info(cmd.Cmdline())

	output, err := config.runner().Run(ctx, cmd)
	result.Output = append(result.Output, output...)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s", cmd.Cmdline()),
			fmt.Sprintf("Working directory: %s", dir))
	}

	if err != nil {
		return &NativeBuildError{
			Dir:     dir,
			Cmdline: cmd.Cmdline(),
			Output:  output,
			Err:     err,
		}
	}

	return nil
}

// findBuiltArchives reports which of the target's expected archives exist
func (b *MakefileBuilder) findBuiltArchives(config *BuildConfig, ext *Extension) ([]string, error) {
	var archives []string

	for _, archive := range ext.ExtraObjects {
		if _, err := os.Stat(config.Resolve(archive)); err == nil {
			archives = append(archives, archive)
		}
	}

	return archives, nil
}

func (b *MakefileBuilder) makeDir(config *BuildConfig, ext *Extension) string {
	return filepath.Dir(config.Resolve(ext.Sources[0]))
}

// getMakeProgram returns the appropriate make program for the platform
func (b *MakefileBuilder) getMakeProgram(config *BuildConfig) string {
	if config.Make != "" {
		return config.Make
	}

	if makeEnv := os.Getenv("MAKE"); makeEnv != "" {
		return makeEnv
	}

	switch config.Platform {
	case Windows:
		return nmakeProgram
	default:
		return makeProgram
	}
}
