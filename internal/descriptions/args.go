package descriptions

import (
	"maps"
	"math"
	"path"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// args reads typed values out of a node's normalized argument map.
type args struct {
	node *domain.TargetNode
}

func (a args) invalid(key string) error {
	return zerr.With(zerr.With(domain.ErrInvalidArgument, "target", a.node.Target.String()), "argument", key)
}

func (a args) has(key string) bool {
	_, ok := a.node.Args[key]
	return ok
}

func (a args) str(key, def string) (string, error) {
	v, ok := a.node.Args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", a.invalid(key)
	}
	return s, nil
}

func (a args) boolean(key string) (bool, error) {
	v, ok := a.node.Args[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, a.invalid(key)
	}
	return b, nil
}

func (a args) integer(key string, def int64) (int64, error) {
	v, ok := a.node.Args[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, a.invalid(key)
	}
	return int64(f), nil
}

func (a args) strings(key string) ([]string, error) {
	v, ok := a.node.Args[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, a.invalid(key)
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, a.invalid(key)
		}
		out[i] = s
	}
	return out, nil
}

func (a args) stringMap(key string) (map[string]string, error) {
	v, ok := a.node.Args[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, a.invalid(key)
	}
	out := make(map[string]string, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		s, ok := m[k].(string)
		if !ok {
			return nil, a.invalid(key)
		}
		out[k] = s
	}
	return out, nil
}

// sources parses a list of file paths and target references. File paths are already
// root-relative after loading.
func (a args) sources(key string) ([]domain.SourcePath, error) {
	refs, err := a.strings(key)
	if err != nil {
		return nil, err
	}
	out := make([]domain.SourcePath, 0, len(refs))
	for _, ref := range refs {
		src, err := a.parseSource(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (a args) source(key string) (domain.SourcePath, error) {
	ref, err := a.str(key, "")
	if err != nil {
		return domain.SourcePath{}, err
	}
	if ref == "" {
		return domain.SourcePath{}, a.invalid(key)
	}
	return a.parseSource(ref)
}

func (a args) parseSource(ref string) (domain.SourcePath, error) {
	if !domain.IsTargetRef(ref) {
		return domain.NewFileSource(ref), nil
	}
	t := a.node.Target
	src, err := domain.ParseSourceRef(ref, t.Cell(), t.BasePath())
	if err != nil {
		return domain.SourcePath{}, zerr.With(err, "referenced_by", t.String())
	}
	return src, nil
}

// localPath validates a path that must stay inside the rule's own directories.
func (a args) localPath(key, p string) (string, error) {
	cleaned := path.Clean(p)
	if p == "" || path.IsAbs(cleaned) || cleaned == ".." || len(cleaned) > 2 && cleaned[:3] == "../" {
		return "", zerr.With(a.invalid(key), "path", p)
	}
	return cleaned, nil
}
