// Package occbuild builds the native extension modules of occmodel, the
// scripting bindings for the OpenCASCADE (OCE) geometry kernel.
//
// It replaces the project's setup script: it generates the version
// constants included by the Cython sources, runs the kernel wrapper's own
// Makefile, and compiles the two extension modules with the flags and
// libraries of the host platform.
//
// # Basic Usage
//
//	config := occbuild.NewBuildConfig("/path/to/occmodel")
//	orch := occbuild.NewOrchestrator(config, nil)
//
//	if err := orch.Run(ctx, occbuild.ActionBuildExt); err != nil {
//	    if errors.Is(err, occbuild.ErrNativeBuild) {
//	        // make failed in the wrapper directory; nothing was compiled
//	    }
//	}
//
// # Architecture
//
//	Orchestrator
//	├── WriteConfigArtifact (occmodel/src/Config.pxi)
//	├── Settings            (windows / darwin / linux dispatch)
//	├── DeclareExtensions   (geotools, occmodel)
//	└── BuilderFactory
//	    ├── MakefileBuilder (occmodel/Makefile → liboccmodel.a)
//	    └── CythonBuilder   (.pyx → C/C++ → module)
//
// # Platform Support
//
// Windows uses MSVC (cl/link) and prebuilt .lib files.  macOS compiles the
// C++ wrapper sources into the module.  Every other host is treated as
// Linux and links the static archive produced by make.
package occbuild
