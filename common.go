package occbuild

import (
	"context"
)

// runCommonBuild executes the standard 3-step build process.
//
//  1. Configure: prepare inputs (e.g. translate .pyx to C/C++)
//  2. Build: produce the target
//  3. Find: locate the produced files
//
// If any step fails, processing stops, result.Error is set and the error is
// returned with Success=false. Subsequent steps are not executed.
func runCommonBuild(ctx context.Context, config *BuildConfig, ext *Extension, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Name:    ext.Name,
		Success: false,
		Output:  []string{},
	}

	// Step 1: Configure/prepare the build
	if err := steps.ConfigureFunc(ctx, config, ext, result); err != nil {
		result.Error = err
		return result, err
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result, err
	}

	// Step 2: Build/compile the target
	if err := steps.BuildFunc(ctx, config, ext, result); err != nil {
		result.Error = err
		return result, err
	}

	// Step 3: Find the built files
	built, err := steps.FindFunc(config, ext)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Extensions = built
	result.Success = true
	return result, nil
}
