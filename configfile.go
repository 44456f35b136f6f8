package occbuild

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ConfigArtifact renders the version constants included by the Cython
// sources at compile time.
func ConfigArtifact(v Version) []byte {
	return []byte(fmt.Sprintf("__version__ = '%s'\n__version_info__ = %s\n", v.String(), v.Tuple()))
}

// WriteConfigArtifact creates the version constants file at path unless it
// already exists or the action packages a source distribution.  It reports
// whether the file was written.
func WriteConfigArtifact(fs afero.Fs, path string, v Version, action Action) (bool, error) {
	if action == ActionSdist {
		return false, nil
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return false, fmt.Errorf("could not stat %s: %w", path, err)
	}
	if exists {
		return false, nil
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("could not create %s: %w", filepath.Dir(path), err)
	}

	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false, fmt.Errorf("could not create %s: %w", path, err)
	}

	if _, err := f.Write(ConfigArtifact(v)); err != nil {
		f.Close()
		return false, fmt.Errorf("could not write %s: %w", path, err)
	}

	return true, f.Close()
}
