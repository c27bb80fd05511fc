package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal workspace directory.
	KilnDirName = ".kiln"

	// OutDirName is the name of the directory holding published rule outputs.
	OutDirName = "out"

	// ScratchDirName is the name of the directory rules execute in.
	ScratchDirName = "tmp"

	// StagingDirName is the name of the directory fetched artifacts wait in.
	StagingDirName = "staging"

	// CacheDirName is the name of the local artifact cache directory.
	CacheDirName = "cache"

	// RecordsDirName is the name of the build record database directory.
	RecordsDirName = "records"

	// BuildFileName is the name of a package build file.
	BuildFileName = "kiln.yaml"

	// WorkFileName is the name of the workspace configuration file.
	WorkFileName = "kiln.work.yaml"

	// DepFileName is the name a rule writes its used inputs to, relative to its scratch directory.
	DepFileName = "kiln.deps"

	// ArtifactExt is the extension of packed artifacts.
	ArtifactExt = ".tar.zst"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultKilnPath returns the default root directory for kiln metadata.
func DefaultKilnPath() string {
	return KilnDirName
}

// DefaultCachePath returns the default path of the local artifact cache.
// It joins .kiln and cache.
func DefaultCachePath() string {
	return filepath.Join(KilnDirName, CacheDirName)
}

// DefaultRecordsPath returns the default path of the build record database.
// It joins .kiln and records.
func DefaultRecordsPath() string {
	return filepath.Join(KilnDirName, RecordsDirName)
}

// DefaultStagingPath returns the default path fetched artifacts are staged in.
func DefaultStagingPath() string {
	return filepath.Join(KilnDirName, StagingDirName)
}

// TargetDir returns the relative directory that identifies a target on disk.
func TargetDir(t BuildTarget) string {
	name := t.ShortName()
	if t.HasFlavors() {
		name += "#" + t.flavors.String()
	}
	return filepath.Join(filepath.FromSlash(t.Cell()), filepath.FromSlash(t.BasePath()), name)
}

// OutputDir returns the root-relative directory a target's outputs are published to.
func OutputDir(t BuildTarget) string {
	return filepath.Join(KilnDirName, OutDirName, TargetDir(t))
}

// ScratchDir returns the root-relative directory a target's steps run in.
func ScratchDir(t BuildTarget) string {
	return filepath.Join(KilnDirName, ScratchDirName, TargetDir(t))
}
