package occbuild

import (
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Language of an extension's compiled sources.
const (
	LanguageC   = "c"
	LanguageCXX = "c++"
)

// Extension names of the declared modules.
const (
	GeotoolsModule = "geotools"
	KernelModule   = "occmodel"
	ArchiveTarget  = "liboccmodel"
)

// Extension describes one build target: a native module loaded by the
// scripting runtime, or the kernel wrapper archive built by make.
//
// Paths are slash separated and relative to the source root unless
// absolute.
type Extension struct {
	Name             string   `yaml:"name"`
	Sources          []string `yaml:"sources"`
	Depends          []string `yaml:"depends,omitempty"`
	IncludeDirs      []string `yaml:"include_dirs,omitempty"`
	LibraryDirs      []string `yaml:"library_dirs,omitempty"`
	Libraries        []string `yaml:"libraries,omitempty"`
	ExtraLinkArgs    []string `yaml:"extra_link_args,omitempty"`
	ExtraCompileArgs []string `yaml:"extra_compile_args,omitempty"`
	ExtraObjects     []string `yaml:"extra_objects,omitempty"`
	Language         string   `yaml:"language,omitempty"`
}

// CPlusPlus reports whether the extension is compiled as C++.
func (e *Extension) CPlusPlus() bool {
	return e.Language == LanguageCXX
}

// DeclareExtensions assembles the two extension modules for the given
// platform settings: the standalone geotools module and the kernel binding
// module.
func DeclareExtensions(root string, layout Layout, s PlatformSettings) ([]*Extension, error) {
	fsys := os.DirFS(root)

	geoDepends, err := globAll(fsys,
		layout.GeotoolsDir+"/*.pxi",
		layout.GeotoolsDir+"/*.pxd",
		layout.GeotoolsDir+"/*.h",
	)
	if err != nil {
		return nil, err
	}

	geotools := &Extension{
		Name:        GeotoolsModule,
		Sources:     []string{layout.GeotoolsSource},
		Depends:     geoDepends,
		IncludeDirs: []string{layout.GeotoolsDir + "/"},
		Language:    LanguageC,
	}

	sources := []string{layout.MainSource}
	extra, err := globAll(fsys, s.ExtraSources...)
	if err != nil {
		return nil, err
	}
	sources = append(sources, extra...)

	kernelDepends, err := globAll(fsys,
		layout.WrapperSources+"/*.pxd",
		layout.WrapperSources+"/*.pxi",
	)
	if err != nil {
		return nil, err
	}

	kernel := &Extension{
		Name:             KernelModule,
		Sources:          sources,
		Depends:          kernelDepends,
		IncludeDirs:      []string{layout.WrapperSources, s.IncludeDir},
		LibraryDirs:      []string{"/lib/", layout.WrapperDir},
		Libraries:        append([]string{}, s.Libraries...),
		ExtraLinkArgs:    append([]string{}, s.LinkArgs...),
		ExtraCompileArgs: append([]string{}, s.CompileArgs...),
		ExtraObjects:     append([]string{}, s.ExtraObjects...),
		Language:         LanguageCXX,
	}

	return []*Extension{geotools, kernel}, nil
}

// KernelArchive describes the kernel wrapper build performed by make in the
// wrapper directory before any extension is compiled.
func KernelArchive(layout Layout) *Extension {
	return &Extension{
		Name:         ArchiveTarget,
		Sources:      []string{layout.WrapperDir + "/Makefile"},
		ExtraObjects: []string{layout.StaticArchive},
	}
}

// globAll expands each pattern against fsys and returns the sorted union.
// Patterns matching nothing contribute nothing.
func globAll(fsys fs.FS, patterns ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var matches []string

	for _, pattern := range patterns {
		found, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
		}
		for _, m := range found {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			matches = append(matches, m)
		}
	}

	sort.Strings(matches)
	return matches, nil
}
