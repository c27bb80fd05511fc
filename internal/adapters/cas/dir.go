// Package cas implements artifact caches addressed by rule key, and the archive format
// artifacts are stored in.
package cas

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// DirCache stores artifacts as files in a local directory, sharded by the first byte of
// the key. Writes go to a temporary file that is renamed into place, so readers never see
// partial artifacts.
type DirCache struct {
	dir      string
	readOnly bool
}

// NewDirCache creates a cache rooted at dir.
func NewDirCache(dir string, readOnly bool) *DirCache {
	return &DirCache{dir: dir, readOnly: readOnly}
}

// Name identifies the cache.
func (c *DirCache) Name() string {
	return "dir"
}

// Dir returns the cache directory.
func (c *DirCache) Dir() string {
	return c.dir
}

func (c *DirCache) path(key domain.RuleKey) string {
	s := key.String()
	return filepath.Join(c.dir, s[:2], s+domain.ArtifactExt)
}

// Fetch copies the artifact stored under key to dst.
func (c *DirCache) Fetch(_ context.Context, key domain.RuleKey, dst string) domain.CacheResult {
	r, err := c.Open(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Miss(c.Name())
		}
		return domain.CacheErr(c.Name(), err)
	}
	defer func() { _ = r.Close() }()

	if err := atomicWrite(dst, r); err != nil {
		return domain.CacheErr(c.Name(), err)
	}
	return domain.Hit(c.Name())
}

// Store copies the artifact src under key.
func (c *DirCache) Store(_ context.Context, key domain.RuleKey, src string) error {
	//nolint:gosec // Path is an artifact produced by kiln
	f, err := os.Open(src)
	if err != nil {
		return zerr.Wrap(err, domain.ErrFileOpenFailed.Error())
	}
	defer func() { _ = f.Close() }()
	return c.Put(key, f)
}

// Open returns a reader for the artifact stored under key. A missing artifact is an
// error satisfying errors.Is(err, fs.ErrNotExist).
func (c *DirCache) Open(key domain.RuleKey) (io.ReadCloser, error) {
	//nolint:gosec // Path is derived from a hex rule key
	return os.Open(c.path(key))
}

// Put stores the artifact read from r under key.
func (c *DirCache) Put(key domain.RuleKey, r io.Reader) error {
	if c.readOnly {
		return domain.ErrCacheReadOnly
	}
	if err := atomicWrite(c.path(key), r); err != nil {
		return zerr.With(err, "key", key.String())
	}
	return nil
}

// Close is a no-op.
func (c *DirCache) Close() error {
	return nil
}

func atomicWrite(dst string, r io.Reader) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
