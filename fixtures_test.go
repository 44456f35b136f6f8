package occbuild

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

// fakeRunner records commands instead of running them.  Every path that
// follows a "-o" argument is created so later build steps find their
// inputs.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []Command
	fail    map[string]error
	outputs map[string][]string
}

func (r *fakeRunner) Run(_ context.Context, cmd Command) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, cmd)

	if err := r.fail[cmd.Name]; err != nil {
		return r.outputs[cmd.Name], err
	}

	for i, arg := range cmd.Args {
		if arg == "-o" && i+1 < len(cmd.Args) {
			out := cmd.Args[i+1]
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(out, []byte("built"), 0o644); err != nil {
				return nil, err
			}
		}
	}

	return r.outputs[cmd.Name], nil
}

func (r *fakeRunner) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		names = append(names, c.Name)
	}
	return names
}

// exitError mimics a process that exited with a status.
type exitError int

func (e exitError) Error() string   { return "exit status " + strconv.Itoa(int(e)) }
func (e exitError) ExitStatus() int { return int(e) }

var testPython = &PythonInfo{
	IncludeDir: "/usr/include/python3.11",
	ExtSuffix:  ".so",
	Prefix:     "/usr",
	Version:    "3.11",
}

// writeSourceTree lays out a minimal occmodel checkout and returns its root.
func writeSourceTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"occmodel/Makefile":              "all:\n",
		"occmodel/occmodel.pyx":          "include 'src/Config.pxi'\n",
		"occmodel/src/OCCModel.cpp":      "// wrapper\n",
		"occmodel/src/OCCTools.cpp":      "// tools\n",
		"occmodel/src/OCCModel.h":        "// header\n",
		"occmodel/src/OCCModelLib.pxd":   "cdef extern from 'OCCModel.h':\n",
		"occmodel/src/OCCBase.pxi":       "cdef class Base:\n",
		"occmodel/geotools/geotools.pyx": "include 'Geometry.pxi'\n",
		"occmodel/geotools/Geometry.pxi": "cdef class Point:\n",
		"occmodel/geotools/GeoTools.pxd": "cdef extern from 'geotools.h':\n",
		"occmodel/geotools/geotools.h":   "// geotools\n",
		"README.rst":                     "occmodel\n",
	}

	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}

	return root
}

// testConfig returns a Linux configuration over root using runner.
func testConfig(root string, runner Runner) *BuildConfig {
	config := NewBuildConfig(root)
	config.Platform = Linux
	config.Make = "make"
	config.CC = "cc"
	config.CXX = "c++"
	config.Cython = "cython"
	config.PythonInfo = testPython
	config.Runner = runner
	return config
}
