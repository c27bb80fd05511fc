package domain

import (
	"fmt"
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// TargetNode is the parsed, unevaluated form of one rule declaration.
type TargetNode struct {
	Target BuildTarget
	Type   string
	Args   map[string]any
	Deps   []BuildTarget
}

// NewTargetNode builds a node with normalized arguments and sorted, deduplicated dependencies.
func NewTargetNode(target BuildTarget, ruleType string, args map[string]any, deps []BuildTarget) (*TargetNode, error) {
	if target.IsZero() {
		return nil, zerr.With(ErrInvalidTarget, "type", ruleType)
	}
	normalized, err := NormalizeArgs(args)
	if err != nil {
		return nil, zerr.With(err, "target", target.String())
	}
	return &TargetNode{
		Target: target,
		Type:   ruleType,
		Args:   normalized,
		Deps:   SortTargets(slices.Clone(deps)),
	}, nil
}

// NormalizeArgs converts an argument map into the restricted value model of strings,
// float64 numbers, bools, nil, []any and map[string]any. Normalized maps survive an
// encode and decode through loosely typed formats without changing.
func NormalizeArgs(args map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, k := range slices.Sorted(maps.Keys(args)) {
		v, err := normalizeValue(args[k])
		if err != nil {
			return nil, zerr.With(err, "argument", k)
		}
		out[k] = v
	}
	return out, nil
}

//nolint:cyclop // one case per supported kind
func normalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, float64:
		return val, nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case uint:
		return float64(val), nil
	case uint32:
		return float64(val), nil
	case uint64:
		return float64(val), nil
	case float32:
		return float64(val), nil
	case []string:
		list := make([]any, len(val))
		for i, s := range val {
			list[i] = s
		}
		return list, nil
	case []any:
		list := make([]any, len(val))
		for i, item := range val {
			n, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = n
		}
		return list, nil
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return m, nil
	case map[string]any:
		return NormalizeArgs(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			key, ok := k.(string)
			if !ok {
				return nil, zerr.With(ErrUnsupportedArgument, "key", fmt.Sprintf("%v", k))
			}
			m[key] = item
		}
		return NormalizeArgs(m)
	default:
		return nil, zerr.With(ErrUnsupportedArgument, "value_type", fmt.Sprintf("%T", v))
	}
}
