package occbuild

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the source root when present.
const DefaultConfigFile = "occbuild.yaml"

// Project is the package metadata written into source distributions.
type Project struct {
	Name            string   `yaml:"name"`
	Version         Version  `yaml:"version"`
	Description     string   `yaml:"description"`
	LongDescription string   `yaml:"long_description,omitempty"`
	Classifiers     []string `yaml:"classifiers,omitempty"`
	Author          string   `yaml:"author"`
	AuthorEmail     string   `yaml:"author_email"`
	License         string   `yaml:"license"`
	DownloadURL     string   `yaml:"download_url,omitempty"`
	URL             string   `yaml:"url"`
	Platforms       []string `yaml:"platforms,omitempty"`
}

// FileConfig is the schema of occbuild.yaml.  Every field is optional and
// overrides the built-in default.
type FileConfig struct {
	Project `yaml:",inline"`

	Kernel KernelConfig `yaml:"kernel,omitempty"`
}

// DefaultProject returns the built-in occmodel metadata.
func DefaultProject() *Project {
	return &Project{
		Name:        "occmodel",
		Version:     DefaultVersion,
		Description: "Easy access to the OpenCASCADE library",
		LongDescription: heredoc.Doc(`
			**occmodel** is a small library which gives a high level access
			to the OpenCASCADE modelling kernel.

			For most users a direct use of the OpenCASCADE modelling
			kernel can be quite a hurdle as it is a huge library.

			The geometry can be visualized with the included viewer.
			This viewer is utilizing modern OpenGL methods like GLSL
			shaders and vertex buffers to ensure visual quality and
			maximum speed. To use the viewer OpenGL version 2.1 is
			needed.

			In order to complete the installation OpenCASCADE must be installed
			on the system. Check the home page or the README file for details.
		`),
		Classifiers: []string{
			"Development Status :: 4 - Beta",
			"Environment :: MacOS X",
			"Environment :: Win32 (MS Windows)",
			"Environment :: X11 Applications",
			"Intended Audience :: Science/Research",
			"License :: OSI Approved :: GNU General Public License v2 (GPLv2)",
			"Operating System :: OS Independent",
			"Programming Language :: Cython",
			"Topic :: Scientific/Engineering",
		},
		Author:      "Runar Tenfjord",
		AuthorEmail: "runar.tenfjord@gmail.com",
		License:     "GPLv2",
		DownloadURL: "http://pypi.python.org/pypi/occmodel/",
		URL:         "http://github.com/tenko/occmodel",
		Platforms:   []string{"any"},
	}
}

// LoadFileConfig reads path on top of the defaults.  A missing file is not
// an error when optional is set.
func LoadFileConfig(path string, optional bool) (*FileConfig, error) {
	fc := &FileConfig{Project: *DefaultProject()}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if optional && os.IsNotExist(err) {
			return fc, nil
		}
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	if fc.Name == "" {
		return nil, fmt.Errorf("%s: name must not be empty", path)
	}

	return fc, nil
}

// DistName is the base name of the project's source distribution.
func (p *Project) DistName() string {
	return fmt.Sprintf("%s-%s", p.Name, p.Version)
}

// PKGInfo renders the metadata file placed at the top of a source
// distribution.
func (p *Project) PKGInfo() []byte {
	var b bytes.Buffer

	field := func(key, value string) {
		if value == "" {
			value = "UNKNOWN"
		}
		fmt.Fprintf(&b, "%s: %s\n", key, value)
	}

	field("Metadata-Version", "1.1")
	field("Name", p.Name)
	field("Version", p.Version.String())
	field("Summary", p.Description)
	field("Home-page", p.URL)
	field("Author", p.Author)
	field("Author-email", p.AuthorEmail)
	field("License", p.License)
	field("Download-URL", p.DownloadURL)

	// Continuation lines of the description are indented by 8 spaces.
	desc := strings.TrimRight(p.LongDescription, "\n")
	field("Description", strings.ReplaceAll(desc, "\n", "\n        "))

	for _, platform := range p.Platforms {
		field("Platform", platform)
	}
	for _, classifier := range p.Classifiers {
		field("Classifier", classifier)
	}

	return b.Bytes()
}
