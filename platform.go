package occbuild

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Platform identifies one of the three supported build hosts.
type Platform string

const (
	Windows Platform = "windows"
	Darwin  Platform = "darwin"
	Linux   Platform = "linux"
)

// Platform name constants
const (
	platformWindows = string(Windows)
	platformDarwin  = string(Darwin)
)

// Kernel header locations used when no override is configured.
const (
	DefaultKernelInclude        = "/usr/include/oce"
	DefaultWindowsKernelInclude = `C:\vs9include\oce`
)

// Compiler flags selected per platform.
const (
	flagExceptionHandling = "/EHsc"
	flagPermissive        = "-fpermissive"
)

// PlatformFromGOOS maps a GOOS value onto a supported platform.  Anything
// other than windows or darwin is treated as Linux.
func PlatformFromGOOS(goos string) Platform {
	switch goos {
	case platformWindows:
		return Windows
	case platformDarwin:
		return Darwin
	default:
		return Linux
	}
}

// ParsePlatform accepts a platform name as given on the command line.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(name) {
	case "windows", "win32":
		return Windows, nil
	case "darwin", "macos":
		return Darwin, nil
	case "linux":
		return Linux, nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", name)
	}
}

// KernelConfig overrides where the kernel headers live and which component
// libraries are linked.
type KernelConfig struct {
	Include        string   `yaml:"include,omitempty"`
	WindowsInclude string   `yaml:"windows_include,omitempty"`
	Libraries      []string `yaml:"libraries,omitempty"`
}

// PlatformSettings holds the compiler and linker inputs selected for one
// platform.
type PlatformSettings struct {
	Platform     Platform `yaml:"platform"`
	IncludeDir   string   `yaml:"include_dir"`
	Libraries    []string `yaml:"libraries,omitempty"`
	ExtraObjects []string `yaml:"extra_objects,omitempty"`
	ExtraSources []string `yaml:"extra_sources,omitempty"` // glob patterns
	CompileArgs  []string `yaml:"compile_args"`
	LinkArgs     []string `yaml:"link_args,omitempty"`
}

// Settings performs the platform dispatch.
//
// Windows compiles with /EHsc and links the kernel .lib files plus the
// prebuilt occmodel.lib.  macOS compiles the wrapper sources directly into
// the module.  Linux links the prebuilt static archive.  Both non-Windows
// platforms compile with -fpermissive and link the kernel libraries by name.
func Settings(p Platform, layout Layout, kernel KernelConfig) (PlatformSettings, error) {
	libs := kernel.Libraries
	if len(libs) == 0 {
		libs = KernelLibraries()
	}

	s := PlatformSettings{Platform: p}

	switch p {
	case Windows:
		s.CompileArgs = []string{flagExceptionHandling}
		s.IncludeDir = firstNonEmpty(kernel.WindowsInclude, DefaultWindowsKernelInclude)
		for _, name := range libs {
			s.ExtraObjects = append(s.ExtraObjects, name+".lib")
		}
		s.ExtraObjects = append(s.ExtraObjects, layout.WindowsArchive)

	case Darwin:
		s.CompileArgs = []string{flagPermissive}
		s.IncludeDir = firstNonEmpty(kernel.Include, DefaultKernelInclude)
		s.Libraries = append([]string{}, libs...)
		s.ExtraSources = []string{layout.WrapperSources + "/*.cpp"}

	case Linux:
		s.CompileArgs = []string{flagPermissive}
		s.IncludeDir = firstNonEmpty(kernel.Include, DefaultKernelInclude)
		s.Libraries = append([]string{}, libs...)
		s.ExtraObjects = []string{layout.StaticArchive}

	default:
		return s, fmt.Errorf("unsupported platform: %s", p)
	}

	dir, err := homedir.Expand(s.IncludeDir)
	if err != nil {
		return s, fmt.Errorf("could not expand kernel include dir: %w", err)
	}
	s.IncludeDir = dir

	return s, nil
}

// KernelConfigFromEnv fills in overrides from OCC_INCLUDE and OCC_LIBS
// (space separated) on top of base.
func KernelConfigFromEnv(base KernelConfig) KernelConfig {
	if include := os.Getenv("OCC_INCLUDE"); include != "" {
		base.Include = include
		base.WindowsInclude = include
	}
	if libs := strings.Fields(os.Getenv("OCC_LIBS")); len(libs) > 0 {
		base.Libraries = libs
	}
	return base
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
