package cas

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// metaEntry is the archive entry holding the artifact metadata. It is always first.
const metaEntry = ".kiln-artifact.json"

// Archiver packs rule outputs into zstd-compressed tar streams.
// Entries are written in lexical order with zeroed times, so equal outputs give equal
// artifacts.
type Archiver struct{}

// NewArchiver creates an archiver.
func NewArchiver() *Archiver {
	return &Archiver{}
}

// Pack writes the files under the root-relative paths into the artifact dst.
func (a *Archiver) Pack(root string, paths []string, meta *domain.ArtifactMeta, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrArtifactPackFailed.Error())
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".pack-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrArtifactPackFailed.Error())
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := a.write(tmp, root, paths, meta); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrArtifactPackFailed.Error()), "artifact", dst)
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrArtifactPackFailed.Error())
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return zerr.Wrap(err, domain.ErrArtifactPackFailed.Error())
	}
	return nil
}

func (a *Archiver) write(w io.Writer, root string, paths []string, meta *domain.ArtifactMeta) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return err
	}
	tw := tar.NewWriter(enc)

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := tw.WriteHeader(&tar.Header{Name: metaEntry, Mode: domain.FilePerm, Size: int64(len(data)), Typeflag: tar.TypeReg}); err != nil {
		return err
	}
	if _, err := tw.Write(data); err != nil {
		return err
	}

	for _, p := range paths {
		if err := addTree(tw, root, p); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return enc.Close()
}

func addTree(tw *tar.Writer, root, rel string) error {
	return filepath.WalkDir(filepath.Join(root, rel), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return zerr.With(domain.ErrOutputMissing, "path", rel)
			}
			return err
		}
		name, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name = filepath.ToSlash(name)
		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr := &tar.Header{Name: name, Mode: int64(info.Mode().Perm())}
		switch {
		case d.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
			return tw.WriteHeader(hdr)
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = link
			return tw.WriteHeader(hdr)
		case info.Mode().IsRegular():
			hdr.Typeflag = tar.TypeReg
			hdr.Size = info.Size()
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			//nolint:gosec // Path is produced by walking a rule output
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			_, err = io.Copy(tw, f)
			return err
		default:
			return nil
		}
	})
}

// Unpack extracts the artifact src under root and returns its metadata. Entries outside
// the root-relative directory allowed make the artifact corrupt.
func (a *Archiver) Unpack(src, root, allowed string) (*domain.ArtifactMeta, error) {
	//nolint:gosec // Path is a cache or staging file owned by kiln
	f, err := os.Open(src)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrFileOpenFailed.Error())
	}
	defer func() { _ = f.Close() }()

	meta, err := extract(f, root, filepath.ToSlash(allowed))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactCorrupt.Error()), "artifact", src)
	}
	return meta, nil
}

// ReadMeta returns the metadata of the artifact src without extracting it.
func (a *Archiver) ReadMeta(src string) (*domain.ArtifactMeta, error) {
	//nolint:gosec // Path is a cache or staging file owned by kiln
	f, err := os.Open(src)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrFileOpenFailed.Error())
	}
	defer func() { _ = f.Close() }()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrArtifactCorrupt.Error())
	}
	defer dec.Close()
	meta, err := readMeta(tar.NewReader(dec))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArtifactCorrupt.Error()), "artifact", src)
	}
	return meta, nil
}

func readMeta(tr *tar.Reader) (*domain.ArtifactMeta, error) {
	hdr, err := tr.Next()
	if err != nil {
		return nil, err
	}
	if hdr.Name != metaEntry {
		return nil, zerr.With(zerr.New("missing artifact metadata"), "entry", hdr.Name)
	}
	var meta domain.ArtifactMeta
	if err := json.NewDecoder(tr).Decode(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// extract unpacks the entries after the metadata through an os.Root opened at the allowed
// directory, so no entry can write through a symlink that leaves it.
func extract(r io.Reader, root, allowed string) (*domain.ArtifactMeta, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	tr := tar.NewReader(dec)

	meta, err := readMeta(tr)
	if err != nil {
		return nil, err
	}

	base := filepath.Join(root, filepath.FromSlash(allowed))
	if err := os.MkdirAll(base, domain.DirPerm); err != nil {
		return nil, err
	}
	dir, err := os.OpenRoot(base)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dir.Close() }()

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return meta, nil
		}
		if err != nil {
			return nil, err
		}
		name := path.Clean(strings.TrimSuffix(hdr.Name, "/"))
		if !within(allowed, name) {
			return nil, zerr.With(domain.ErrOutputPathOutsideRoot, "entry", hdr.Name)
		}
		rel := filepath.FromSlash(relativeTo(allowed, name))

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := dir.MkdirAll(rel, domain.DirPerm); err != nil {
				return nil, err
			}
		case tar.TypeSymlink:
			if rel == "." || !safeLink(name, hdr.Linkname) {
				return nil, zerr.With(zerr.With(domain.ErrOutputPathOutsideRoot, "entry", hdr.Name), "link", hdr.Linkname)
			}
			if err := dir.MkdirAll(filepath.Dir(rel), domain.DirPerm); err != nil {
				return nil, err
			}
			_ = dir.Remove(rel)
			if err := dir.Symlink(hdr.Linkname, rel); err != nil {
				return nil, err
			}
		case tar.TypeReg:
			if rel == "." {
				return nil, zerr.With(domain.ErrOutputPathOutsideRoot, "entry", hdr.Name)
			}
			if err := writeFile(dir, rel, tr, fs.FileMode(hdr.Mode).Perm()); err != nil {
				return nil, err
			}
		}
	}
}

func writeFile(dir *os.Root, name string, r io.Reader, mode fs.FileMode) error {
	if err := dir.MkdirAll(filepath.Dir(name), domain.DirPerm); err != nil {
		return err
	}
	out, err := dir.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return dir.Chmod(name, mode)
}

// relativeTo returns name relative to dir. name must lie within dir.
func relativeTo(dir, name string) string {
	switch {
	case dir == ".":
		return name
	case name == dir:
		return "."
	default:
		return strings.TrimPrefix(name, dir+"/")
	}
}

// safeLink reports whether a symlink entry name pointing at link stays inside the
// workspace. Absolute links are never safe.
func safeLink(name, link string) bool {
	if link == "" || path.IsAbs(link) || filepath.IsAbs(link) {
		return false
	}
	return within(".", path.Join(path.Dir(name), link))
}

// within reports whether the slash-separated name lies inside dir.
func within(dir, name string) bool {
	if strings.HasPrefix(name, "../") || name == ".." || path.IsAbs(name) {
		return false
	}
	return dir == "." || name == dir || strings.HasPrefix(name, dir+"/")
}
