package occbuild

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testOrchestrator(t *testing.T, runner Runner) (*Orchestrator, string) {
	t.Helper()

	root := writeSourceTree(t)
	orch := NewOrchestrator(testConfig(root, runner), nil)
	return orch, root
}

func TestRunFailingMakeStopsBeforeCompiling(t *testing.T) {
	runner := &fakeRunner{
		fail:    map[string]error{"make": exitError(2)},
		outputs: map[string][]string{"make": {"make: *** [OCCModel.o] Error 1"}},
	}
	orch, _ := testOrchestrator(t, runner)

	err := orch.Run(context.Background(), ActionBuildExt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNativeBuild))

	var nerr *NativeBuildError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, 2, nerr.ExitStatus())

	// No translation, compilation or link after the failed make.
	assert.Equal(t, []string{"make"}, runner.names())
	assert.NoDirExists(t, orch.Config.LibDir())
}

func TestRunBuildExt(t *testing.T) {
	runner := &fakeRunner{}
	orch, root := testOrchestrator(t, runner)

	require.NoError(t, orch.Run(context.Background(), ActionBuildExt))

	assert.Equal(t, []string{
		"make",
		"cython", "cc", "cc",
		"cython", "c++", "c++",
	}, runner.names())

	assert.FileExists(t, filepath.Join(orch.Config.LibDir(), "geotools.so"))
	assert.FileExists(t, filepath.Join(orch.Config.LibDir(), "occmodel.so"))

	data, err := os.ReadFile(filepath.Join(root, "occmodel", "src", "Config.pxi"))
	require.NoError(t, err)
	assert.Equal(t, "__version__ = '1.1.0'\n__version_info__ = (1,1,0)\n", string(data))

	// not inplace
	assert.NoFileExists(t, filepath.Join(root, "geotools.so"))
}

func TestBuildExtResults(t *testing.T) {
	orch, _ := testOrchestrator(t, &fakeRunner{})

	results, err := orch.BuildExt(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, ArchiveTarget, results[0].Name)
	assert.Equal(t, GeotoolsModule, results[1].Name)
	assert.Equal(t, KernelModule, results[2].Name)
	for _, r := range results {
		assert.True(t, r.Success, r.Name)
	}
}

func TestBuildExtInplace(t *testing.T) {
	orch, root := testOrchestrator(t, &fakeRunner{})
	orch.Config.Inplace = true

	_, err := orch.BuildExt(context.Background())
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(root, "geotools.so"))
	assert.FileExists(t, filepath.Join(root, "occmodel.so"))
}

func TestBuildExtStopsOnFirstFailedExtension(t *testing.T) {
	runner := &fakeRunner{fail: map[string]error{"cc": exitError(1)}}
	orch, _ := testOrchestrator(t, runner)

	results, err := orch.BuildExt(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNativeBuild))
	require.Len(t, results, 2)
	assert.False(t, results[1].Success)

	assert.Equal(t, []string{"make", "cython", "cc"}, runner.names())
}

func TestBuildExtMissingTools(t *testing.T) {
	withLookPath(t)

	runner := &fakeRunner{}
	orch, _ := testOrchestrator(t, runner)
	orch.CheckTools = true

	results, err := orch.BuildExt(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required tools")
	assert.Empty(t, runner.calls)

	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, []string{"make", "c++", "cython", "python3", "cc"}, results[0].MissingDependencies)
}

func TestRunSdistDoesNotWriteConfigArtifact(t *testing.T) {
	orch, root := testOrchestrator(t, &fakeRunner{})

	require.NoError(t, orch.Run(context.Background(), ActionSdist))

	assert.NoFileExists(t, filepath.Join(root, "occmodel", "src", "Config.pxi"))
	assert.FileExists(t, filepath.Join(root, "dist", "occmodel-1.1.0.tar.gz"))
}

func TestRunUnknownAction(t *testing.T) {
	runner := &fakeRunner{}
	orch, root := testOrchestrator(t, runner)

	err := orch.Run(context.Background(), Action("install"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.Contains(t, err.Error(), `"install"`)

	assert.Empty(t, runner.calls)
	assert.NoFileExists(t, filepath.Join(root, "occmodel", "src", "Config.pxi"))
}

func TestConfigureUsesFs(t *testing.T) {
	orch, root := testOrchestrator(t, &fakeRunner{})
	orch.Fs = afero.NewMemMapFs()

	written, err := orch.Configure(context.Background(), ActionBuild)
	require.NoError(t, err)
	assert.True(t, written)

	path := filepath.Join(root, "occmodel", "src", "Config.pxi")
	exists, err := afero.Exists(orch.Fs, path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoFileExists(t, path)

	written, err = orch.Configure(context.Background(), ActionBuild)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestRunClean(t *testing.T) {
	runner := &fakeRunner{}
	orch, _ := testOrchestrator(t, runner)

	_, err := orch.BuildExt(context.Background())
	require.NoError(t, err)
	require.DirExists(t, orch.Config.LibDir())

	runner.calls = nil
	require.NoError(t, orch.Run(context.Background(), ActionClean))

	assert.NoDirExists(t, filepath.Join(orch.Config.SourceDir, "build"))
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"clean"}, runner.calls[0].Args)
}

func TestShow(t *testing.T) {
	var out bytes.Buffer

	orch, _ := testOrchestrator(t, &fakeRunner{})
	orch.Config.Platform = Windows
	orch.Out = &out

	require.NoError(t, orch.Run(context.Background(), ActionShow))

	var doc struct {
		Project struct {
			Name    string `yaml:"name"`
			Version string `yaml:"version"`
		} `yaml:"project"`
		Settings   PlatformSettings `yaml:"settings"`
		Archive    Extension        `yaml:"archive"`
		Extensions []Extension      `yaml:"extensions"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))

	assert.Equal(t, "occmodel", doc.Project.Name)
	assert.Equal(t, "1.1.0", doc.Project.Version)
	assert.Equal(t, Windows, doc.Settings.Platform)
	assert.Equal(t, []string{"/EHsc"}, doc.Settings.CompileArgs)
	assert.Equal(t, ArchiveTarget, doc.Archive.Name)
	require.Len(t, doc.Extensions, 2)
	assert.Equal(t, GeotoolsModule, doc.Extensions[0].Name)
	assert.Equal(t, KernelModule, doc.Extensions[1].Name)
	assert.Contains(t, doc.Extensions[1].ExtraObjects, "occmodel.lib")
}
