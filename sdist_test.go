package occbuild

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readTarGz(t *testing.T, path string) map[string]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	entries := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)

		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		entries[hdr.Name] = string(data)
	}
	return entries
}

func TestWriteSourceDist(t *testing.T) {
	root := writeSourceTree(t)
	config := testConfig(root, &fakeRunner{})

	junk := map[string]string{
		"occmodel/src/Config.pxi":           "__version__ = '0.0.0'\n",
		"occmodel/liboccmodel.a":            "archive",
		"occmodel/src/OCCModel.o":           "object",
		"geotools.so":                       "module",
		"build/lib.linux-amd64/occmodel.so": "module",
		".git/HEAD":                         "ref: refs/heads/master\n",
		"occmodel/__pycache__/x.pyc":        "bytecode",
	}
	for rel, content := range junk {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	archive, err := WriteSourceDist(context.Background(), config, DefaultLayout(), DefaultProject())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dist", "occmodel-1.1.0.tar.gz"), archive)

	entries := readTarGz(t, archive)

	assert.Contains(t, entries, "occmodel-1.1.0/PKG-INFO")
	assert.Contains(t, entries["occmodel-1.1.0/PKG-INFO"], "Name: occmodel\n")
	assert.Equal(t, "all:\n", entries["occmodel-1.1.0/occmodel/Makefile"])
	assert.Contains(t, entries, "occmodel-1.1.0/occmodel/geotools/geotools.pyx")
	assert.Contains(t, entries, "occmodel-1.1.0/README.rst")

	for _, excluded := range []string{
		"occmodel-1.1.0/occmodel/src/Config.pxi",
		"occmodel-1.1.0/occmodel/liboccmodel.a",
		"occmodel-1.1.0/occmodel/src/OCCModel.o",
		"occmodel-1.1.0/geotools.so",
		"occmodel-1.1.0/build/lib.linux-amd64/occmodel.so",
		"occmodel-1.1.0/.git/HEAD",
		"occmodel-1.1.0/occmodel/__pycache__/x.pyc",
	} {
		assert.NotContains(t, entries, excluded)
	}
}

func TestWriteSourceDistSkipsPreviousArchives(t *testing.T) {
	root := writeSourceTree(t)
	config := testConfig(root, &fakeRunner{})

	_, err := WriteSourceDist(context.Background(), config, DefaultLayout(), DefaultProject())
	require.NoError(t, err)

	archive, err := WriteSourceDist(context.Background(), config, DefaultLayout(), DefaultProject())
	require.NoError(t, err)

	for name := range readTarGz(t, archive) {
		assert.NotContains(t, name, "dist/")
	}
}

func TestWriteSourceDistCancelled(t *testing.T) {
	root := writeSourceTree(t)
	config := testConfig(root, &fakeRunner{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WriteSourceDist(ctx, config, DefaultLayout(), DefaultProject())
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "dist", "occmodel-1.1.0.tar.gz"))
}

func TestExcludedFromSdist(t *testing.T) {
	tests := map[string]bool{
		"occmodel/occmodel.pyx":   false,
		"occmodel/src/OCCModel.h": false,
		"occmodel/src/OCCModel.o": true,
		"occmodel/occmodel.lib":   true,
		"occmodel.cpython-311.so": true,
		".hg":                     true,
		"occmodel/__pycache__":    true,
		"occmodel/occmodel.pyx~":  true,
	}

	for rel, want := range tests {
		assert.Equal(t, want, excludedFromSdist(rel), rel)
	}
}
