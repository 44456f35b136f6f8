package occbuild

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

var nativeModuleExtensions = map[string]struct{}{
	".so":    {},
	".pyd":   {},
	".dll":   {},
	".dylib": {},
}

// installInplace copies linked modules from the build lib dir into the
// source root so the checkout can be imported without installing.  Paths
// are relative to the source root; files that are not native modules are
// skipped.
func installInplace(config *BuildConfig, built []string) ([]string, error) {
	var installed []string

	for _, rel := range uniqueStrings(built) {
		if !isNativeModule(rel) {
			continue
		}

		src := config.Resolve(rel)
		if info, err := os.Stat(src); err != nil || !info.Mode().IsRegular() {
			continue
		}

		name := filepath.Base(src)
		if err := copyFile(src, filepath.Join(config.SourceDir, name)); err != nil {
			return nil, err
		}
		installed = append(installed, name)
	}

	return installed, nil
}

func isNativeModule(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	// Suffixes like .cpython-311-x86_64-linux-gnu.so end in a known extension.
	_, ok := nativeModuleExtensions[filepath.Ext(base)]
	return ok
}

func copyFile(srcPath, destPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}

	if mkErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkErr != nil {
		return mkErr
	}

	in, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{})
	var result []string

	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result
}
