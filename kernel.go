package occbuild

// kernelLibraries are the OpenCASCADE (OCE) component libraries the kernel
// binding links against.
var kernelLibraries = []string{
	"FWOSPlugin", "PTKernel", "TKAdvTools", "TKBO", "TKBRep", "TKBinL", "TKBool",
	"TKCDF", "TKFeat", "TKFillet", "TKG2d", "TKG3d", "TKGeomAlgo", "TKGeomBase",
	"TKHLR", "TKIGES", "TKLCAF", "TKMath", "TKMesh", "TKOffset", "TKPLCAF",
	"TKPShape", "TKPrim", "TKSTEP", "TKSTEP209", "TKSTEPAttr", "TKSTEPBase",
	"TKSTL", "TKShHealing", "TKShapeSchema", "TKStdLSchema", "TKTObj",
	"TKTopAlgo", "TKXMesh", "TKXSBase", "TKXmlL", "TKernel",
}

// KernelLibraries returns a copy of the kernel component library names.
func KernelLibraries() []string {
	return append([]string{}, kernelLibraries...)
}

// Layout names the files of the occmodel checkout, relative to its root and
// slash separated.
type Layout struct {
	WrapperDir     string // Kernel wrapper directory holding the Makefile
	WrapperSources string // C++ wrapper sources and .pxd/.pxi includes
	MainSource     string // Cython source of the kernel binding module
	GeotoolsDir    string
	GeotoolsSource string
	ConfigFile     string // Generated version constants
	StaticArchive  string // Archive built by make on Unix hosts
	WindowsArchive string // Prebuilt archive linked on Windows
}

// DefaultLayout returns the layout of the occmodel source tree.
func DefaultLayout() Layout {
	return Layout{
		WrapperDir:     "occmodel",
		WrapperSources: "occmodel/src",
		MainSource:     "occmodel/occmodel.pyx",
		GeotoolsDir:    "occmodel/geotools",
		GeotoolsSource: "occmodel/geotools/geotools.pyx",
		ConfigFile:     "occmodel/src/Config.pxi",
		StaticArchive:  "occmodel/liboccmodel.a",
		WindowsArchive: "occmodel.lib",
	}
}
