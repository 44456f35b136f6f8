package occbuild

import "context"

// Builder defines the interface that all builders must implement.
//
// Each builder handles one kind of target: the kernel wrapper's Makefile
// or a Cython extension module.
//
// # Builder Lifecycle
//
//  1. CanBuild() - Factory calls this to find the right builder for a target
//  2. Build() - Factory calls this to produce the target
//  3. Clean() - Optional cleanup of build artifacts
//
// # Thread Safety
//
// Builder implementations are stateless. Builds are nonetheless run one at a
// time by the factory.
type Builder interface {
	// Name returns the human-readable name of this builder.
	//
	// This name is used in error messages and logs.
	// Examples: "Makefile", "Cython"
	Name() string

	// CanBuild checks if this builder can handle the given target.
	//
	// The decision is made from the base name of the target's primary
	// source (e.g. "Makefile", "geotools.pyx").
	CanBuild(ext *Extension) bool

	// Build produces the target and returns the result.
	//
	// Returns:
	//   - BuildResult with Success=true and Extensions list on success
	//   - BuildResult with Success=false and Error on failure
	Build(ctx context.Context, config *BuildConfig, ext *Extension) (*BuildResult, error)

	// Clean removes build artifacts.
	//
	// Returns nil if cleaning is not supported or completes successfully.
	Clean(ctx context.Context, config *BuildConfig, ext *Extension) error
}
