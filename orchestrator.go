package occbuild

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/contriboss/occbuild/log"
)

// Action is one of the commands understood by the orchestrator.
type Action string

const (
	ActionBuild    Action = "build"
	ActionBuildExt Action = "build_ext"
	ActionSdist    Action = "sdist"
	ActionClean    Action = "clean"
	ActionShow     Action = "show"
)

// Orchestrator turns the host platform into compiler and linker settings
// and drives the kernel wrapper build and the extension builds.
type Orchestrator struct {
	Config  *BuildConfig
	Project *Project
	Layout  Layout
	Factory *BuilderFactory

	// Fs holds the generated configuration artifact.
	Fs afero.Fs

	// CheckTools verifies the toolchain before building.
	CheckTools bool

	// Out receives the output of ActionShow.
	Out io.Writer
}

// NewOrchestrator wires the default layout, builders and filesystem.
func NewOrchestrator(config *BuildConfig, project *Project) *Orchestrator {
	if project == nil {
		project = DefaultProject()
	}

	return &Orchestrator{
		Config:  config,
		Project: project,
		Layout:  DefaultLayout(),
		Factory: NewBuilderFactory(),
		Fs:      afero.NewOsFs(),
		Out:     os.Stdout,
	}
}

// Run writes the configuration artifact (except for sdist) and performs
// the action.
func (o *Orchestrator) Run(ctx context.Context, action Action) error {
	switch action {
	case ActionBuild, ActionBuildExt, ActionSdist, ActionClean, ActionShow:
	default:
		return errors.Wrapf(ErrUnknownAction, "%q", action)
	}

	if _, err := o.Configure(ctx, action); err != nil {
		return err
	}

	switch action {
	case ActionBuild, ActionBuildExt:
		_, err := o.BuildExt(ctx)
		return err
	case ActionSdist:
		_, err := o.Sdist(ctx)
		return err
	case ActionClean:
		return o.Clean(ctx)
	default:
		return o.Show(ctx, o.Out)
	}
}

// Configure creates the version constants file unless it exists or the
// action is sdist.
func (o *Orchestrator) Configure(ctx context.Context, action Action) (bool, error) {
	path := o.Config.Resolve(o.Layout.ConfigFile)

	written, err := WriteConfigArtifact(o.Fs, path, o.Project.Version, action)
	if err != nil {
		return false, errors.Wrap(err, "could not write configuration artifact")
	}

	if written {
		log.G(ctx).Infof("created %s", path)
	}
	return written, nil
}

// Settings resolves the platform settings for the configured target.
func (o *Orchestrator) Settings() (PlatformSettings, error) {
	return Settings(o.Config.Platform, o.Layout, o.Config.Kernel)
}

// Extensions declares the extension modules for the configured target.
func (o *Orchestrator) Extensions() ([]*Extension, error) {
	settings, err := o.Settings()
	if err != nil {
		return nil, err
	}
	return DeclareExtensions(o.Config.SourceDir, o.Layout, settings)
}

// BuildExt runs the kernel wrapper build, then builds both extensions.
//
// The wrapper build is fail-fast: when make exits non-zero the returned
// error matches ErrNativeBuild and no extension is compiled.
func (o *Orchestrator) BuildExt(ctx context.Context) ([]*BuildResult, error) {
	exts, err := o.Extensions()
	if err != nil {
		return nil, errors.Wrap(err, "could not declare extensions")
	}

	archive := KernelArchive(o.Layout)

	if o.CheckTools {
		required := o.Factory.RequiredTools(o.Config, append([]*Extension{archive}, exts...))
		if missing := MissingTools(required); len(missing) > 0 {
			err := missingToolsError(missing)
			return []*BuildResult{{
				Name:                archive.Name,
				Error:               err,
				MissingDependencies: toolNames(missing),
			}}, err
		}
	}

	archiveBuilder, err := o.Factory.BuilderFor(archive)
	if err != nil {
		return nil, err
	}

	log.G(ctx).Infof("building kernel wrapper in %s", o.Layout.WrapperDir)

	archiveResult, err := archiveBuilder.Build(ctx, o.Config, archive)
	results := []*BuildResult{archiveResult}
	if err != nil {
		log.G(ctx).WithError(err).Error("kernel wrapper build failed")
		return results, err
	}

	extResults, err := o.Factory.BuildAllExtensions(ctx, o.Config, exts)
	results = append(results, extResults...)
	if err != nil {
		return results, err
	}

	if o.Config.Inplace {
		var built []string
		for _, r := range extResults {
			built = append(built, r.Extensions...)
		}

		installed, err := installInplace(o.Config, built)
		if err != nil {
			return results, errors.Wrap(err, "could not copy modules in place")
		}
		for _, name := range installed {
			log.G(ctx).Infof("copied %s into %s", name, o.Config.SourceDir)
		}
	}

	return results, nil
}

// Sdist writes the source distribution and returns its path.
func (o *Orchestrator) Sdist(ctx context.Context) (string, error) {
	return WriteSourceDist(ctx, o.Config, o.Layout, o.Project)
}

// Clean runs make clean in the wrapper dir and removes the build dir.
func (o *Orchestrator) Clean(ctx context.Context) error {
	archive := KernelArchive(o.Layout)

	builder, err := o.Factory.BuilderFor(archive)
	if err != nil {
		return err
	}
	if err := builder.Clean(ctx, o.Config, archive); err != nil {
		return err
	}

	dir := o.Config.buildRoot()
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "could not remove %s", dir)
	}

	log.G(ctx).Infof("removed %s", dir)
	return nil
}

// showDocument is what ActionShow prints.
type showDocument struct {
	Project    *Project         `yaml:"project"`
	Settings   PlatformSettings `yaml:"settings"`
	Archive    *Extension       `yaml:"archive"`
	Extensions []*Extension     `yaml:"extensions"`
}

// Show prints the resolved settings and extension declarations as YAML.
func (o *Orchestrator) Show(ctx context.Context, w io.Writer) error {
	settings, err := o.Settings()
	if err != nil {
		return err
	}

	exts, err := DeclareExtensions(o.Config.SourceDir, o.Layout, settings)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(showDocument{
		Project:    o.Project,
		Settings:   settings,
		Archive:    KernelArchive(o.Layout),
		Extensions: exts,
	}); err != nil {
		return fmt.Errorf("could not encode settings: %w", err)
	}

	return enc.Close()
}
