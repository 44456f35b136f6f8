package occbuild

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/contriboss/occbuild/log"
)

// BuilderFactory manages the registration and selection of builders.
//
// # Builder Selection
//
// When building a target, the factory:
//  1. Takes the base name of the target's primary source
//  2. Calls CanBuild() on each registered builder in order
//  3. Uses the first builder that returns true
//  4. Returns an error if no builder can handle the target
//
// Register all builders before use; registration is not synchronized.
type BuilderFactory struct {
	builders []Builder
}

// NewBuilderFactory creates a factory with the standard builders registered:
// MakefileBuilder for the kernel wrapper archive, then CythonBuilder for the
// extension modules.
func NewBuilderFactory() *BuilderFactory {
	factory := &BuilderFactory{}

	factory.Register(&MakefileBuilder{})
	factory.Register(&CythonBuilder{})

	return factory
}

// Register adds a new builder to the factory.
//
// Builders are checked in the order they are registered.
func (f *BuilderFactory) Register(builder Builder) {
	f.builders = append(f.builders, builder)
}

// BuilderFor returns the first builder able to build ext.
func (f *BuilderFactory) BuilderFor(ext *Extension) (Builder, error) {
	for _, builder := range f.builders {
		if builder.CanBuild(ext) {
			return builder, nil
		}
	}

	var source string
	if len(ext.Sources) > 0 {
		source = filepath.Base(ext.Sources[0])
	}
	return nil, fmt.Errorf("no builder found for %s (source: %q)", ext.Name, source)
}

// ListBuilders returns a copy of all registered builders.
func (f *BuilderFactory) ListBuilders() []Builder {
	return append([]Builder{}, f.builders...)
}

// RequiredTools collects the tool requirements of every builder needed for
// exts.  Targets without a builder are left for BuildAllExtensions to
// report.
func (f *BuilderFactory) RequiredTools(config *BuildConfig, exts []*Extension) []ToolRequirement {
	seen := make(map[Builder]struct{})
	var requirements []ToolRequirement

	for _, ext := range exts {
		builder, err := f.BuilderFor(ext)
		if err != nil {
			continue
		}
		if _, ok := seen[builder]; ok {
			continue
		}
		seen[builder] = struct{}{}

		if checker, ok := builder.(ToolChecker); ok {
			requirements = append(requirements, checker.RequiredTools(config)...)
		}
	}

	return requirements
}

// CheckTools verifies the tools of every builder needed for exts.
func (f *BuilderFactory) CheckTools(config *BuildConfig, exts []*Extension) error {
	return CheckRequiredTools(f.RequiredTools(config, exts))
}

// BuildAllExtensions builds all targets in sequence.
//
// For each target it checks for context cancellation, finds the builder,
// builds and collects the result.  If config.StopOnFailure is true,
// processing stops after the first failure; otherwise every target is
// attempted.  The first error encountered is returned alongside the
// results gathered so far.
func (f *BuilderFactory) BuildAllExtensions(ctx context.Context, config *BuildConfig, exts []*Extension) ([]*BuildResult, error) {
	if len(exts) == 0 {
		return nil, nil
	}

	var results []*BuildResult
	var firstError error

	for _, ext := range exts {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if firstError == nil {
				firstError = ctxErr
			}
			results = append(results, &BuildResult{
				Name:    ext.Name,
				Success: false,
				Error:   ctxErr,
			})
			break
		}

		builder, err := f.BuilderFor(ext)
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			results = append(results, &BuildResult{
				Name:    ext.Name,
				Success: false,
				Error:   err,
			})
			if config.StopOnFailure {
				break
			}
			continue
		}

		log.G(ctx).WithField("builder", builder.Name()).Infof("building '%s' extension", ext.Name)

		result, err := builder.Build(ctx, config, ext)
		if err != nil {
			if firstError == nil {
				firstError = err
			}
			if result == nil {
				result = &BuildResult{
					Name:    ext.Name,
					Success: false,
					Error:   err,
				}
			}
		}

		results = append(results, result)

		if !result.Success && config.StopOnFailure {
			break
		}
	}

	return results, firstError
}
