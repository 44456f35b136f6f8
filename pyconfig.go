package occbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/contriboss/occbuild/log"
)

// PythonInfo is the interpreter layout the extension modules are built
// against.
type PythonInfo struct {
	IncludeDir string `yaml:"include_dir"`
	ExtSuffix  string `yaml:"ext_suffix"`
	Prefix     string `yaml:"prefix"`
	Version    string `yaml:"version"` // MAJOR.MINOR
}

// Works on Python 2.7 and 3.x; EXT_SUFFIX only exists on 3.x.  Every line
// is keyed so warnings the interpreter mixes into the output are ignored.
const pythonProbe = `import sys, sysconfig
print('occbuild.include=' + sysconfig.get_paths()['include'])
print('occbuild.ext_suffix=' + (sysconfig.get_config_var('EXT_SUFFIX') or sysconfig.get_config_var('SO') or ''))
print('occbuild.prefix=' + sys.prefix)
print('occbuild.version=%d.%d' % sys.version_info[:2])`

const probeKeyPrefix = "occbuild."

// DiscoverPython asks the configured interpreter for its include directory
// and extension module suffix.
func DiscoverPython(ctx context.Context, config *BuildConfig) (*PythonInfo, error) {
	python := pythonProgram(config)

	output, err := config.runner().Run(ctx, Command{
		Env:  config.environ(),
		Name: python,
		Args: []string{"-c", pythonProbe},
	})
	if err != nil {
		return nil, BuildError("Python", output, err)
	}

	values := parseProbeOutput(output)
	for _, key := range []string{"include", "prefix", "version"} {
		if values[key] == "" {
			return nil, BuildError("Python", output, fmt.Errorf("unexpected output from %s: no %s", python, key))
		}
	}

	info := &PythonInfo{
		IncludeDir: values["include"],
		ExtSuffix:  values["ext_suffix"],
		Prefix:     values["prefix"],
		Version:    values["version"],
	}
	if info.ExtSuffix == "" {
		info.ExtSuffix = defaultExtSuffix(config.Platform)
	}

	log.G(ctx).WithField("python", python).Debugf("python %s, include %s, suffix %s",
		info.Version, info.IncludeDir, info.ExtSuffix)

	return info, nil
}

// parseProbeOutput collects the keyed lines printed by pythonProbe.
func parseProbeOutput(output []string) map[string]string {
	values := make(map[string]string)
	for _, line := range output {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, probeKeyPrefix) {
			continue
		}
		if key, value, ok := strings.Cut(line[len(probeKeyPrefix):], "="); ok {
			values[key] = strings.TrimSpace(value)
		}
	}
	return values
}

// LibDir returns the directory holding the interpreter's import library;
// only Windows links against it.
func (p *PythonInfo) LibDir() string {
	return filepath.Join(p.Prefix, "libs")
}

// InitSymbol returns the module initialisation function exported by a
// module called name.
func (p *PythonInfo) InitSymbol(name string) string {
	if strings.HasPrefix(p.Version, "2.") {
		return "init" + name
	}
	return "PyInit_" + name
}

func pythonProgram(config *BuildConfig) string {
	if config.Python != "" {
		return config.Python
	}
	if config.Platform == Windows {
		return "python"
	}
	return "python3"
}

func defaultExtSuffix(p Platform) string {
	if p == Windows {
		return ".pyd"
	}
	return ".so"
}

// FlagsFromEnv splits the named environment variable into arguments using
// shell quoting rules.  An unset variable yields no flags.
func FlagsFromEnv(name string) ([]string, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return nil, nil
	}

	flags, err := shellwords.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", name, err)
	}
	return flags, nil
}
