package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/contriboss/occbuild"
)

type exitError int

func (e exitError) Error() string   { return "exit status " + strconv.Itoa(int(e)) }
func (e exitError) ExitStatus() int { return int(e) }

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestShowCommand(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "show", "-C", root, "--platform", "darwin", "--log-type", "quiet")
	require.NoError(t, err)

	var doc struct {
		Settings occbuild.PlatformSettings `yaml:"settings"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, occbuild.Darwin, doc.Settings.Platform)
	assert.Equal(t, []string{"-fpermissive"}, doc.Settings.CompileArgs)

	assert.FileExists(t, filepath.Join(root, "occmodel", "src", "Config.pxi"))
}

func TestShowCommandKernelOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("OCC_INCLUDE", "/opt/oce/include")
	t.Setenv("OCC_LIBS", "TKernel TKMath")

	out, err := execute(t, "show", "-C", root, "--platform", "linux", "--log-type", "quiet")
	require.NoError(t, err)

	var doc struct {
		Settings occbuild.PlatformSettings `yaml:"settings"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "/opt/oce/include", doc.Settings.IncludeDir)
	assert.Equal(t, []string{"TKernel", "TKMath"}, doc.Settings.Libraries)
}

func TestVersionCommand(t *testing.T) {
	root := t.TempDir()

	out, err := execute(t, "version", "-C", root)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0\n", out)

	require.NoError(t, os.WriteFile(filepath.Join(root, occbuild.DefaultConfigFile), []byte("version: 2.0.1\n"), 0o644))

	out, err = execute(t, "version", "-C", root)
	require.NoError(t, err)
	assert.Equal(t, "2.0.1\n", out)
}

func TestCommandErrors(t *testing.T) {
	root := t.TempDir()

	_, err := execute(t, "show", "-C", root, "--platform", "plan9")
	assert.Error(t, err)

	_, err = execute(t, "show", "-C", root, "--log-level", "chatty")
	assert.Error(t, err)

	_, err = execute(t, "version", "--config", filepath.Join(root, "missing.yaml"))
	assert.Error(t, err)

	_, err = execute(t, "install")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	nerr := &occbuild.NativeBuildError{Dir: "occmodel", Err: exitError(3)}

	assert.Equal(t, 3, exitCode(nerr))
	assert.Equal(t, 3, exitCode(fmt.Errorf("build_ext: %w", nerr)))
	assert.Equal(t, 1, exitCode(&occbuild.NativeBuildError{Err: errors.New("killed")}))
	assert.Equal(t, 1, exitCode(errors.New("cython build failed")))
}
