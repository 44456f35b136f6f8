package occbuild

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"github.com/contriboss/occbuild/log"
)

// sdistExcludes are never packaged.  Patterns match the slash separated
// path relative to the source root, or any of its base names.
var sdistExcludes = []string{
	".git", ".hg", ".svn", "__pycache__",
	"*.o", "*.obj", "*.a", "*.lib", "*.so", "*.pyd", "*.dll", "*.dylib",
	"*.pyc", "*.pyo", "*~",
}

// WriteSourceDist packages the source tree into
// <DistPath>/<name>-<version>.tar.gz and returns the archive path.
//
// The generated configuration artifact, the build and dist directories and
// compiled outputs are left out: the artifact is regenerated on the machine
// that builds from the archive.
func WriteSourceDist(ctx context.Context, config *BuildConfig, layout Layout, project *Project) (string, error) {
	distDir := config.DistPath()
	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create %s: %w", distDir, err)
	}

	archive := filepath.Join(distDir, project.DistName()+".tar.gz")
	f, err := os.Create(archive)
	if err != nil {
		return "", fmt.Errorf("could not create %s: %w", archive, err)
	}

	if err := writeSourceTar(ctx, f, config, layout, project, []string{distDir, config.buildRoot(), archive}); err != nil {
		f.Close()
		os.Remove(archive)
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", err
	}

	if info, err := os.Stat(archive); err == nil {
		log.G(ctx).Infof("wrote %s (%s)", archive, humanize.Bytes(uint64(info.Size())))
	}

	return archive, nil
}

func writeSourceTar(ctx context.Context, w io.Writer, config *BuildConfig, layout Layout, project *Project, skipDirs []string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	prefix := project.DistName()
	now := time.Now()

	pkgInfo := project.PKGInfo()
	if err := tw.WriteHeader(&tar.Header{
		Name:    path.Join(prefix, "PKG-INFO"),
		Mode:    0o644,
		Size:    int64(len(pkgInfo)),
		ModTime: now,
	}); err != nil {
		return err
	}
	if _, err := tw.Write(pkgInfo); err != nil {
		return err
	}

	skip := make(map[string]struct{}, len(skipDirs))
	for _, dir := range skipDirs {
		skip[filepath.Clean(dir)] = struct{}{}
	}

	configArtifact := filepath.Clean(config.Resolve(layout.ConfigFile))

	err := filepath.WalkDir(config.SourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(config.SourceDir, p)
		if err != nil || rel == "." {
			return err
		}
		rel = filepath.ToSlash(rel)

		if _, ok := skip[filepath.Clean(p)]; ok || excludedFromSdist(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Clean(p) == configArtifact || rel == "PKG-INFO" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case info.IsDir():
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     path.Join(prefix, rel) + "/",
				Mode:     0o755,
				ModTime:  info.ModTime(),
			})
		case info.Mode().IsRegular():
			return addFile(tw, p, path.Join(prefix, rel), info)
		default:
			log.G(ctx).Debugf("skipping %s: not a regular file", rel)
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("could not package sources: %w", err)
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFile(tw *tar.Writer, src, name string, info fs.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uid, hdr.Gid = 0, 0
	hdr.Uname, hdr.Gname = "", ""

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

func excludedFromSdist(rel string) bool {
	return MatchesPattern(rel, sdistExcludes...) || MatchesPattern(path.Base(rel), sdistExcludes...)
}
