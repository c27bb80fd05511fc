package fs

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.FileHasher = (*Hasher)(nil)

// Hasher hashes file and directory contents with xxhash. Hashes of input paths are
// memoized until invalidated.
type Hasher struct {
	walker *Walker

	mu   sync.RWMutex
	memo map[string]uint64
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker, memo: make(map[string]uint64)}
}

// HashPath returns the content hash of the file or directory tree at path.
func (h *Hasher) HashPath(path string) (uint64, error) {
	path = filepath.Clean(path)
	h.mu.RLock()
	v, ok := h.memo[path]
	h.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := h.hash(path)
	if err != nil {
		return 0, err
	}
	h.mu.Lock()
	h.memo[path] = v
	h.mu.Unlock()
	return v, nil
}

// Prefetch hashes paths concurrently so later HashPath calls are served from memory.
func (h *Hasher) Prefetch(ctx context.Context, paths []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := h.HashPath(p)
			return err
		})
	}
	return g.Wait()
}

// Invalidate drops the memoized hashes of paths, of directories containing them and of
// anything below them.
func (h *Hasher) Invalidate(paths ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range paths {
		p = filepath.Clean(p)
		for k := range h.memo {
			if k == p || isUnder(p, k) || isUnder(k, p) {
				delete(h.memo, k)
			}
		}
	}
}

// HashOutputs returns a digest over the root-relative paths without memoizing.
func (h *Hasher) HashOutputs(root string, paths []string) (string, error) {
	sorted := slices.Sorted(slices.Values(paths))
	digest := xxhash.New()
	for _, p := range sorted {
		full := filepath.Join(root, p)
		if _, err := os.Stat(full); err != nil {
			return "", zerr.With(zerr.Wrap(err, domain.ErrOutputMissing.Error()), "path", p)
		}
		v, err := h.hash(full)
		if err != nil {
			return "", err
		}
		_, _ = digest.WriteString(filepath.ToSlash(p))
		_, _ = digest.Write([]byte{0})
		_ = binary.Write(digest, binary.LittleEndian, v)
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func (h *Hasher) hash(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	if !info.IsDir() {
		return hashFile(path)
	}

	// A directory folds each file's path relative to it, then its content hash.
	digest := xxhash.New()
	for file := range h.walker.WalkFiles(path, nil) {
		rel, err := filepath.Rel(path, file)
		if err != nil {
			return 0, zerr.Wrap(err, domain.ErrFileHashFailed.Error())
		}
		v, err := hashFile(file)
		if err != nil {
			return 0, err
		}
		_, _ = digest.WriteString(filepath.ToSlash(rel))
		_, _ = digest.Write([]byte{0})
		_ = binary.Write(digest, binary.LittleEndian, v)
	}
	return digest.Sum64(), nil
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}
	return digest.Sum64(), nil
}

// isUnder reports whether p lies strictly inside dir.
func isUnder(p, dir string) bool {
	return strings.HasPrefix(p, dir+string(filepath.Separator))
}
