// Package config loads the workspace configuration and the package build files that
// make up the target graph.
package config

import (
	"fmt"
	"iter"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// PackageWalker finds the package directories of a workspace.
type PackageWalker interface {
	// WalkDirs yields every directory under root holding a file called name, relative to root.
	WalkDirs(root, name string) iter.Seq[string]
}

// Mode represents how the workspace was discovered.
type Mode string

const (
	// ModeWorkspace indicates that a kiln.work.yaml was found.
	ModeWorkspace Mode = "workspace"
	// ModeStandalone indicates that only a kiln.yaml was found.
	ModeStandalone Mode = "standalone"
)

// Loader implements ports.ConfigLoader using YAML files.
type Loader struct {
	logger   ports.Logger
	fs       FileSystem
	walker   PackageWalker
	resolver ports.InputResolver
	validate *validator.Validate
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger, fsys FileSystem, walker PackageWalker, resolver ports.InputResolver) *Loader {
	return &Loader{
		logger:   logger,
		fs:       fsys,
		walker:   walker,
		resolver: resolver,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// DiscoverRoot walks up from cwd to find the workspace root.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, _, err := l.findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

// LoadWorkspace reads the workspace configuration found from cwd upwards.
func (l *Loader) LoadWorkspace(cwd string) (*domain.Workspace, error) {
	configPath, mode, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var wf Workfile
	if mode == ModeWorkspace {
		if err := l.readYAML(configPath, &wf); err != nil {
			return nil, err
		}
		if err := l.validate.Struct(&wf); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "path", configPath)
		}
	}

	ws, err := toWorkspace(resolveRoot(configPath, wf.Root), &wf)
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}
	ws.BuildFiles = l.discoverBuildFiles(ws.Root, wf.Packages)
	l.logger.Debug(fmt.Sprintf("found %d build files in %s mode", len(ws.BuildFiles), mode))
	return ws, nil
}

// LoadGraph parses every build file of ws into a validated target graph.
func (l *Loader) LoadGraph(ws *domain.Workspace) (*domain.TargetGraph, error) {
	var nodes []*domain.TargetNode
	for _, rel := range ws.BuildFiles {
		pkgDir := path.Dir(rel)
		cell, base := cellOf(ws.Cells, pkgDir)

		var bf Buildfile
		if err := l.readYAML(filepath.Join(ws.Root, filepath.FromSlash(rel)), &bf); err != nil {
			return nil, err
		}
		for _, name := range slices.Sorted(maps.Keys(bf.Rules)) {
			n, err := l.node(ws.Root, pkgDir, cell, base, name, bf.Rules[name])
			if err != nil {
				return nil, zerr.With(err, "build_file", rel)
			}
			nodes = append(nodes, n)
		}
	}
	return domain.NewTargetGraph(nodes)
}

func (l *Loader) findConfiguration(cwd string) (string, Mode, error) {
	currentDir := cwd
	var standaloneCandidate string

	for {
		workfilePath := filepath.Join(currentDir, domain.WorkFileName)
		if _, err := l.fs.Stat(workfilePath); err == nil {
			return workfilePath, ModeWorkspace, nil
		}

		if standaloneCandidate == "" {
			buildfilePath := filepath.Join(currentDir, domain.BuildFileName)
			if _, err := l.fs.Stat(buildfilePath); err == nil {
				standaloneCandidate = buildfilePath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if standaloneCandidate != "" {
		return standaloneCandidate, ModeStandalone, nil
	}
	return "", "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// discoverBuildFiles returns the root-relative build files of the packages matching
// patterns, or of every package when patterns is empty.
func (l *Loader) discoverBuildFiles(root string, patterns []string) []string {
	var files []string
	for dir := range l.walker.WalkDirs(root, domain.BuildFileName) {
		if len(patterns) > 0 && !slices.ContainsFunc(patterns, func(p string) bool {
			matched, _ := path.Match(path.Clean(p), dir)
			return matched
		}) {
			continue
		}
		files = append(files, path.Join(dir, domain.BuildFileName))
	}
	slices.Sort(files)
	return files
}

func (l *Loader) node(root, pkgDir, cell, base, name string, raw map[string]any) (*domain.TargetNode, error) {
	ruleType, _ := raw[keyType].(string)
	if ruleType == "" {
		return nil, zerr.With(zerr.With(domain.ErrConfigInvalid, "rule", name), "field", keyType)
	}
	flavors, err := stringList(raw[keyFlavors])
	if err != nil {
		return nil, zerr.With(zerr.With(err, "rule", name), "field", keyFlavors)
	}
	target, err := domain.NewBuildTarget(cell, base, name, flavors...)
	if err != nil {
		return nil, err
	}

	depRefs, err := stringList(raw[keyDeps])
	if err != nil {
		return nil, zerr.With(zerr.With(err, "rule", name), "field", keyDeps)
	}
	deps := make([]domain.BuildTarget, 0, len(depRefs))
	for _, ref := range depRefs {
		dep, err := domain.ParseRelativeTarget(ref, cell, base)
		if err != nil {
			return nil, zerr.With(err, "referenced_by", target.String())
		}
		deps = append(deps, dep)
	}

	args := make(map[string]any, len(raw))
	for k, v := range raw {
		if k != keyType && k != keyDeps && k != keyFlavors {
			args[k] = v
		}
	}
	for _, key := range sourceKeys {
		srcDeps, err := l.rebaseSources(args, key, root, pkgDir, cell, base)
		if err != nil {
			return nil, zerr.With(err, "target", target.String())
		}
		deps = append(deps, srcDeps...)
	}
	return domain.NewTargetNode(target, ruleType, args, slices.Compact(domain.SortTargets(deps)))
}

// rebaseSources rewrites the file paths of args[key] to be root-relative and expands
// globs. It returns the targets the argument references.
func (l *Loader) rebaseSources(args map[string]any, key, root, pkgDir, cell, base string) ([]domain.BuildTarget, error) {
	v, ok := args[key]
	if !ok {
		return nil, nil
	}
	single, isString := v.(string)
	refs := []string{single}
	if !isString {
		var err error
		if refs, err = stringList(v); err != nil {
			return nil, zerr.With(err, "field", key)
		}
	}

	var deps []domain.BuildTarget
	out := make([]any, 0, len(refs))
	for _, ref := range refs {
		if domain.IsTargetRef(ref) {
			src, err := domain.ParseSourceRef(ref, cell, base)
			if err != nil {
				return nil, err
			}
			deps = append(deps, src.Target())
			out = append(out, ref)
			continue
		}
		rel := path.Join(pkgDir, ref)
		if !strings.ContainsAny(ref, "*?[") {
			out = append(out, rel)
			continue
		}
		matches, err := l.resolver.ResolveInputs([]string{rel}, root)
		if err != nil {
			return nil, zerr.With(err, "field", key)
		}
		for _, m := range matches {
			out = append(out, m)
		}
	}

	if isString {
		if len(out) != 1 {
			return nil, zerr.With(zerr.With(domain.ErrConfigInvalid, "field", key), "pattern", single)
		}
		args[key] = out[0]
	} else {
		args[key] = out
	}
	return deps, nil
}

func (l *Loader) readYAML(configPath string, target any) error {
	data, err := readConfig(l.fs, configPath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}
	return nil
}

func toWorkspace(root string, wf *Workfile) (*domain.Workspace, error) {
	mode, err := domain.ParseBuildMode(wf.Build.Mode)
	if err != nil {
		return nil, err
	}

	cells := map[string]string{"": "."}
	for name, p := range wf.Cells {
		cleaned := path.Clean(filepath.ToSlash(p))
		if !filepath.IsLocal(filepath.FromSlash(cleaned)) && cleaned != "." {
			return nil, zerr.With(zerr.With(domain.ErrConfigInvalid, "cell", name), "path", p)
		}
		cells[name] = cleaned
	}

	for alias, ref := range wf.Aliases {
		if _, err := domain.ParseBuildTarget(ref); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigInvalid.Error()), "alias", alias)
		}
	}

	cacheDir := wf.Cache.Dir
	if cacheDir == "" {
		cacheDir = domain.DefaultCachePath()
	}
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(root, cacheDir)
	}

	parallel := true
	if wf.Build.ParallelActionGraph != nil {
		parallel = *wf.Build.ParallelActionGraph
	}

	return &domain.Workspace{
		Root:    root,
		Cells:   cells,
		Aliases: maps.Clone(wf.Aliases),
		Settings: domain.Settings{
			KeySeed:             wf.Build.KeySeed,
			Concurrency:         wf.Build.Concurrency,
			StepTimeout:         wf.Build.StepTimeout,
			KeepGoing:           wf.Build.KeepGoing,
			Mode:                mode,
			ParallelActionGraph: parallel,
			CheckActionGraphs:   wf.Build.CheckActionGraphs,
			Cache: domain.CacheSettings{
				Dir:            cacheDir,
				ReadOnly:       wf.Cache.Mode == "readonly",
				Disabled:       wf.Cache.Disabled,
				Remote:         wf.Cache.Remote,
				RemoteReadOnly: wf.Cache.RemoteMode == "readonly",
			},
		},
	}, nil
}

// cellOf returns the cell whose path is the longest prefix of pkgDir and the base path
// of pkgDir inside it.
func cellOf(cells map[string]string, pkgDir string) (cell, base string) {
	bestLen := -1
	for _, name := range slices.Sorted(maps.Keys(cells)) {
		p := cells[name]
		var rest string
		var n int
		switch {
		case p == ".":
			rest = pkgDir
		case pkgDir == p:
			rest, n = "", len(p)
		case strings.HasPrefix(pkgDir, p+"/"):
			rest, n = pkgDir[len(p)+1:], len(p)
		default:
			continue
		}
		if n > bestLen {
			bestLen, cell, base = n, name, rest
		}
	}
	if base == "." {
		base = ""
	}
	return cell, base
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

func stringList(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, domain.ErrConfigInvalid
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, domain.ErrConfigInvalid
		}
		out[i] = s
	}
	return out, nil
}
