package occbuild

import (
	"path/filepath"
	"strings"
)

// Toolchain renders compiler and linker invocations for one compiler
// family.
type Toolchain interface {
	Name() string
	ObjectSuffix() string
	Compile(src, obj string, includeDirs, args []string, cplus bool) Command
	Link(objects []string, out string, link LinkInputs) Command
}

// LinkInputs carries everything the linker needs besides the objects.
type LinkInputs struct {
	CPlusPlus    bool
	LibraryDirs  []string
	Libraries    []string
	ExtraObjects []string
	Args         []string
	Export       string // module init symbol, MSVC only
}

// NewToolchain selects the compiler family for the configured platform.
func NewToolchain(config *BuildConfig) Toolchain {
	if config.Platform == Windows {
		return &msvcToolchain{
			cl:   firstNonEmpty(config.CXX, config.CC, "cl"),
			link: "link",
		}
	}

	return &gccToolchain{
		cc:       firstNonEmpty(config.CC, "cc"),
		cxx:      firstNonEmpty(config.CXX, "c++"),
		platform: config.Platform,
	}
}

type gccToolchain struct {
	cc, cxx  string
	platform Platform
}

func (t *gccToolchain) Name() string { return "GCC" }

func (t *gccToolchain) ObjectSuffix() string { return ".o" }

func (t *gccToolchain) Compile(src, obj string, includeDirs, args []string, cplus bool) Command {
	name := t.cc
	if cplus {
		name = t.cxx
	}

	cmdArgs := []string{"-fPIC", "-O2"}
	for _, dir := range includeDirs {
		cmdArgs = append(cmdArgs, "-I"+dir)
	}
	cmdArgs = append(cmdArgs, "-c", src, "-o", obj)
	cmdArgs = append(cmdArgs, args...)

	return Command{Name: name, Args: cmdArgs}
}

func (t *gccToolchain) Link(objects []string, out string, link LinkInputs) Command {
	name := t.cc
	if link.CPlusPlus {
		name = t.cxx
	}

	var args []string
	if t.platform == Darwin {
		args = append(args, "-bundle", "-undefined", "dynamic_lookup")
	} else {
		args = append(args, "-shared")
	}

	args = append(args, objects...)
	args = append(args, link.ExtraObjects...)
	for _, dir := range link.LibraryDirs {
		args = append(args, "-L"+dir)
	}
	for _, lib := range link.Libraries {
		args = append(args, "-l"+lib)
	}
	args = append(args, link.Args...)
	args = append(args, "-o", out)

	return Command{Name: name, Args: args}
}

type msvcToolchain struct {
	cl, link string
}

func (t *msvcToolchain) Name() string { return "MSVC" }

func (t *msvcToolchain) ObjectSuffix() string { return ".obj" }

func (t *msvcToolchain) Compile(src, obj string, includeDirs, args []string, cplus bool) Command {
	cmdArgs := []string{"/nologo", "/c", "/O2", "/MD", "/W3"}
	for _, dir := range includeDirs {
		cmdArgs = append(cmdArgs, "/I"+dir)
	}
	cmdArgs = append(cmdArgs, args...)

	if cplus {
		cmdArgs = append(cmdArgs, "/Tp"+src)
	} else {
		cmdArgs = append(cmdArgs, "/Tc"+src)
	}
	cmdArgs = append(cmdArgs, "/Fo"+obj)

	return Command{Name: t.cl, Args: cmdArgs}
}

func (t *msvcToolchain) Link(objects []string, out string, link LinkInputs) Command {
	args := []string{"/nologo", "/DLL", "/INCREMENTAL:NO"}
	for _, dir := range link.LibraryDirs {
		args = append(args, "/LIBPATH:"+dir)
	}
	if link.Export != "" {
		args = append(args, "/EXPORT:"+link.Export)
	}
	args = append(args, objects...)
	args = append(args, link.ExtraObjects...)
	for _, lib := range link.Libraries {
		if !strings.HasSuffix(strings.ToLower(lib), ".lib") {
			lib += ".lib"
		}
		args = append(args, lib)
	}
	args = append(args, link.Args...)
	args = append(args, "/OUT:"+out)

	return Command{Name: t.link, Args: args}
}

// objectStem maps a source path onto a path relative to the temp dir with
// its extension removed.
func objectStem(src string) string {
	clean := filepath.ToSlash(filepath.Clean(src))
	if isWindowsAbs(clean) {
		clean = clean[2:]
	}
	clean = strings.TrimLeft(clean, "/")
	for strings.HasPrefix(clean, "../") {
		clean = clean[3:]
	}
	return strings.TrimSuffix(clean, filepath.Ext(clean))
}
