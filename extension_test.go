package occbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareExtensionsLinux(t *testing.T) {
	root := writeSourceTree(t)

	s, err := Settings(Linux, DefaultLayout(), KernelConfig{})
	require.NoError(t, err)

	exts, err := DeclareExtensions(root, DefaultLayout(), s)
	require.NoError(t, err)
	require.Len(t, exts, 2)

	geotools := exts[0]
	assert.Equal(t, GeotoolsModule, geotools.Name)
	assert.Equal(t, []string{"occmodel/geotools/geotools.pyx"}, geotools.Sources)
	assert.Equal(t, []string{
		"occmodel/geotools/GeoTools.pxd",
		"occmodel/geotools/Geometry.pxi",
		"occmodel/geotools/geotools.h",
	}, geotools.Depends)
	assert.Equal(t, []string{"occmodel/geotools/"}, geotools.IncludeDirs)
	assert.Empty(t, geotools.Libraries)
	assert.Empty(t, geotools.ExtraObjects)
	assert.False(t, geotools.CPlusPlus())

	kernel := exts[1]
	assert.Equal(t, KernelModule, kernel.Name)
	assert.Equal(t, []string{"occmodel/occmodel.pyx"}, kernel.Sources)
	assert.Equal(t, []string{
		"occmodel/src/OCCBase.pxi",
		"occmodel/src/OCCModelLib.pxd",
	}, kernel.Depends)
	assert.Equal(t, []string{"occmodel/src", "/usr/include/oce"}, kernel.IncludeDirs)
	assert.Equal(t, []string{"/lib/", "occmodel"}, kernel.LibraryDirs)
	assert.Equal(t, KernelLibraries(), kernel.Libraries)
	assert.Equal(t, []string{"-fpermissive"}, kernel.ExtraCompileArgs)
	assert.Equal(t, []string{"occmodel/liboccmodel.a"}, kernel.ExtraObjects)
	assert.True(t, kernel.CPlusPlus())
}

func TestDeclareExtensionsDarwinCompilesWrapperSources(t *testing.T) {
	root := writeSourceTree(t)

	s, err := Settings(Darwin, DefaultLayout(), KernelConfig{})
	require.NoError(t, err)

	exts, err := DeclareExtensions(root, DefaultLayout(), s)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"occmodel/occmodel.pyx",
		"occmodel/src/OCCModel.cpp",
		"occmodel/src/OCCTools.cpp",
	}, exts[1].Sources)
	assert.Empty(t, exts[1].ExtraObjects)
}

func TestDeclareExtensionsEmptyTree(t *testing.T) {
	s, err := Settings(Linux, DefaultLayout(), KernelConfig{})
	require.NoError(t, err)

	exts, err := DeclareExtensions(t.TempDir(), DefaultLayout(), s)
	require.NoError(t, err)
	assert.Empty(t, exts[0].Depends)
	assert.Empty(t, exts[1].Depends)
}

func TestKernelArchive(t *testing.T) {
	archive := KernelArchive(DefaultLayout())
	assert.Equal(t, ArchiveTarget, archive.Name)
	assert.Equal(t, []string{"occmodel/Makefile"}, archive.Sources)
	assert.Equal(t, []string{"occmodel/liboccmodel.a"}, archive.ExtraObjects)
}
