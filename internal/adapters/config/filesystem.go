package config

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// MaxConfigSize bounds the size of a workfile or build file.
const MaxConfigSize = 1 << 20

// FileSystem is what the loader reads configuration files through. Paths are absolute.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Open(path string) (fs.File, error)
}

// OSFS reads from the host file system.
type OSFS struct{}

// NewOSFS returns an OSFS.
func NewOSFS() OSFS { return OSFS{} }

// Stat implements FileSystem.
func (OSFS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

// Open implements FileSystem.
func (OSFS) Open(path string) (fs.File, error) {
	// #nosec G304 -- path is a discovered configuration file
	return os.Open(path)
}

// MountedFS serves fsys as if it were mounted at an absolute root. Paths outside
// the root fail with fs.ErrNotExist or fs.ErrInvalid.
type MountedFS struct {
	root string
	fsys fs.FS
}

// Mount returns fsys mounted at root.
func Mount(root string, fsys fs.FS) MountedFS {
	return MountedFS{root: filepath.Clean(root), fsys: fsys}
}

// Stat implements FileSystem.
func (m MountedFS) Stat(path string) (fs.FileInfo, error) { return fs.Stat(m.fsys, m.rel(path)) }

// Open implements FileSystem.
func (m MountedFS) Open(path string) (fs.File, error) { return m.fsys.Open(m.rel(path)) }

func (m MountedFS) rel(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

// readConfig reads a whole configuration file, refusing files above MaxConfigSize.
func readConfig(fsys FileSystem, path string) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxConfigSize {
		return nil, zerr.With(domain.ErrConfigTooLarge, "limit", MaxConfigSize)
	}
	return data, nil
}
