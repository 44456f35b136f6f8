package occbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/contriboss/occbuild/log"
)

// CythonBuilder compiles a declared extension module.
//
// The build translates every .pyx source with cython, compiles the
// generated and handwritten C/C++ sources to objects in the temp dir and
// links them, with the extension's extra objects and libraries, into
// <LibDir>/<name><EXT_SUFFIX>.
type CythonBuilder struct{}

// Name returns the builder name
func (b *CythonBuilder) Name() string {
	return "Cython"
}

// RequiredTools returns the tools needed for Cython builds
func (b *CythonBuilder) RequiredTools(config *BuildConfig) []ToolRequirement {
	reqs := []ToolRequirement{
		{
			Name:    cythonProgram(config),
			Purpose: "Cython translator",
		},
		{
			Name:    pythonProgram(config),
			Purpose: "Python interpreter",
		},
	}

	if config.Platform == Windows {
		return append(reqs,
			ToolRequirement{Name: firstNonEmpty(config.CXX, config.CC, "cl"), Purpose: "MSVC compiler"},
			ToolRequirement{Name: "link", Purpose: "MSVC linker"},
		)
	}

	return append(reqs,
		ToolRequirement{
			Name:         firstNonEmpty(config.CC, "cc"),
			Alternatives: []string{"gcc", "clang"},
			Purpose:      "C compiler",
		},
		ToolRequirement{
			Name:         firstNonEmpty(config.CXX, "c++"),
			Alternatives: []string{"g++", "clang++"},
			Purpose:      "C++ compiler",
		},
	)
}

// CheckTools verifies that cython and the compilers are available
func (b *CythonBuilder) CheckTools(config *BuildConfig) error {
	return CheckRequiredTools(b.RequiredTools(config))
}

// CanBuild checks if this builder can handle the target
func (b *CythonBuilder) CanBuild(ext *Extension) bool {
	if len(ext.Sources) == 0 {
		return false
	}
	return MatchesPattern(filepath.Base(ext.Sources[0]), "*.pyx", "*.py")
}

// Build translates, compiles and links the extension module.  An up to date
// module is left alone unless config.Force is set.
func (b *CythonBuilder) Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error) {
	info, err := b.python(ctx, config)
	if err != nil {
		return &BuildResult{Name: ext.Name, Error: err}, err
	}

	target := b.targetPath(config, ext, info)
	if !config.Force && upToDate(target, b.inputs(config, ext)) {
		log.G(ctx).Infof("skipping '%s' extension (up-to-date)", ext.Name)
		return &BuildResult{
			Name:       ext.Name,
			Success:    true,
			Skipped:    true,
			Extensions: []string{b.relative(config, target)},
		}, nil
	}

	return runCommonBuild(ctx, config, ext, CommonBuildSteps{
		ConfigureFunc: b.cythonize,
		BuildFunc:     b.compileAndLink,
		FindFunc:      b.findModule,
	})
}

// Clean removes the module, its generated sources and its objects
func (b *CythonBuilder) Clean(ctx context.Context, config *BuildConfig, ext *Extension) error {
	toolchain := NewToolchain(config)

	var paths []string
	for _, src := range ext.Sources {
		stem := filepath.Join(config.TempDir(), filepath.FromSlash(objectStem(src)))
		paths = append(paths, stem+toolchain.ObjectSuffix())
		if isCythonSource(src) {
			paths = append(paths, b.generatedPath(config, ext, src))
		}
	}

	if config.PythonInfo != nil {
		paths = append(paths, b.targetPath(config, ext, config.PythonInfo))
	}

	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("could not remove %s: %w", p, err)
		}
	}

	return nil
}

// cythonize translates each .pyx source into C or C++ in the temp dir
func (b *CythonBuilder) cythonize(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) error {
	var includeArgs []string
	for _, dir := range ext.IncludeDirs {
		includeArgs = append(includeArgs, "-I", config.Resolve(dir))
	}

	for _, src := range ext.Sources {
		if !isCythonSource(src) {
			continue
		}

		out := b.generatedPath(config, ext, src)
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return fmt.Errorf("could not create %s: %w", filepath.Dir(out), err)
		}

		args := []string{}
		if ext.CPlusPlus() {
			args = append(args, "--cplus")
		}
		args = append(args, includeArgs...)
		args = append(args, "-o", out, config.Resolve(src))

		if err := b.run(ctx, config, "Cython", Command{Name: cythonProgram(config), Args: args}, result); err != nil {
			return err
		}
	}

	return nil
}

// compileAndLink compiles every C/C++ unit and links the module
func (b *CythonBuilder) compileAndLink(ctx context.Context, config *BuildConfig, ext *Extension, result *BuildResult) error {
	info := config.PythonInfo
	toolchain := NewToolchain(config)

	includes := make([]string, 0, len(ext.IncludeDirs)+1)
	for _, dir := range ext.IncludeDirs {
		includes = append(includes, config.Resolve(dir))
	}
	includes = append(includes, info.IncludeDir)

	compileArgs := append(append([]string{}, ext.ExtraCompileArgs...), config.CFlags...)

	var objects []string
	for _, src := range ext.Sources {
		unit := config.Resolve(src)
		if isCythonSource(src) {
			unit = b.generatedPath(config, ext, src)
		}

		obj := filepath.Join(config.TempDir(), filepath.FromSlash(objectStem(src))) + toolchain.ObjectSuffix()
		if err := os.MkdirAll(filepath.Dir(obj), 0o755); err != nil {
			return fmt.Errorf("could not create %s: %w", filepath.Dir(obj), err)
		}

		cmd := toolchain.Compile(unit, obj, includes, compileArgs, ext.CPlusPlus())
		if err := b.run(ctx, config, toolchain.Name(), cmd, result); err != nil {
			return err
		}
		objects = append(objects, obj)

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	link := LinkInputs{
		CPlusPlus: ext.CPlusPlus(),
		Libraries: ext.Libraries,
		Args:      append(append([]string{}, ext.ExtraLinkArgs...), config.LDFlags...),
		Export:    info.InitSymbol(ext.Name),
	}
	for _, dir := range ext.LibraryDirs {
		link.LibraryDirs = append(link.LibraryDirs, config.Resolve(dir))
	}
	if config.Platform == Windows {
		link.LibraryDirs = append(link.LibraryDirs, info.LibDir())
	}
	link.LibraryDirs = uniqueStrings(link.LibraryDirs)

	for _, obj := range ext.ExtraObjects {
		// Bare library names are found through the library dirs.
		if filepath.Dir(filepath.FromSlash(obj)) == "." {
			link.ExtraObjects = append(link.ExtraObjects, obj)
			continue
		}
		link.ExtraObjects = append(link.ExtraObjects, config.Resolve(obj))
	}

	target := b.targetPath(config, ext, info)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", filepath.Dir(target), err)
	}

	return b.run(ctx, config, toolchain.Name(), toolchain.Link(objects, target, link), result)
}

// findModule reports the linked module relative to the source root
func (b *CythonBuilder) findModule(config *BuildConfig, ext *Extension) ([]string, error) {
	target := b.targetPath(config, ext, config.PythonInfo)
	if _, err := os.Stat(target); err != nil {
		return nil, fmt.Errorf("linked module %s not found: %w", target, err)
	}
	return []string{b.relative(config, target)}, nil
}

func (b *CythonBuilder) run(ctx context.Context, config *BuildConfig, step string, cmd Command, result *BuildResult) error {
	cmd.Dir = config.SourceDir
	cmd.Env = config.environ()

	log.G(ctx).Info(cmd.Cmdline())

	output, err := config.runner().Run(ctx, cmd)
	result.Output = append(result.Output, output...)

	if config.Verbose {
		result.Output = append(result.Output, fmt.Sprintf("Running: %s", cmd.Cmdline()))
	}

	if err != nil {
		return BuildError(step, output, err)
	}
	return nil
}

func (b *CythonBuilder) python(ctx context.Context, config *BuildConfig) (*PythonInfo, error) {
	if config.PythonInfo != nil {
		return config.PythonInfo, nil
	}

	info, err := DiscoverPython(ctx, config)
	if err != nil {
		return nil, err
	}

	config.PythonInfo = info
	return info, nil
}

// generatedPath is where cython writes the translation of src
func (b *CythonBuilder) generatedPath(config *BuildConfig, ext *Extension, src string) string {
	suffix := ".c"
	if ext.CPlusPlus() {
		suffix = ".cpp"
	}
	return filepath.Join(config.TempDir(), filepath.FromSlash(objectStem(src))) + suffix
}

func (b *CythonBuilder) targetPath(config *BuildConfig, ext *Extension, info *PythonInfo) string {
	return filepath.Join(config.LibDir(), ext.Name+info.ExtSuffix)
}

// inputs are the files whose modification makes the module stale
func (b *CythonBuilder) inputs(config *BuildConfig, ext *Extension) []string {
	var inputs []string
	for _, p := range ext.Sources {
		inputs = append(inputs, config.Resolve(p))
	}
	for _, p := range ext.Depends {
		inputs = append(inputs, config.Resolve(p))
	}
	for _, p := range ext.ExtraObjects {
		if filepath.Dir(filepath.FromSlash(p)) == "." {
			continue
		}
		// Archives produced by make count only when present.
		resolved := config.Resolve(p)
		if _, err := os.Stat(resolved); err == nil {
			inputs = append(inputs, resolved)
		}
	}
	return inputs
}

func (b *CythonBuilder) relative(config *BuildConfig, path string) string {
	if rel, err := filepath.Rel(config.SourceDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

// upToDate reports whether target exists and is newer than every input.
// A missing input makes the target stale.
func upToDate(target string, inputs []string) bool {
	info, err := os.Stat(target)
	if err != nil {
		return false
	}

	for _, input := range inputs {
		in, err := os.Stat(input)
		if err != nil || in.ModTime().After(info.ModTime()) {
			return false
		}
	}

	return true
}

func isCythonSource(src string) bool {
	return MatchesExtension(src, ".pyx", ".py")
}

func cythonProgram(config *BuildConfig) string {
	if config.Cython != "" {
		return config.Cython
	}
	if cython := strings.TrimSpace(os.Getenv("CYTHON")); cython != "" {
		return cython
	}
	return "cython"
}
