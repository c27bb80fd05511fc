package domain

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// ValueKind enumerates the shapes a key-contributing value can take.
type ValueKind uint8

const (
	// KindNull is an absent value.
	KindNull ValueKind = iota
	// KindString is a string.
	KindString
	// KindInt is a signed integer.
	KindInt
	// KindFloat is a floating point number.
	KindFloat
	// KindBool is a boolean.
	KindBool
	// KindList is an ordered list of values.
	KindList
	// KindMap is a string keyed map, folded in key order.
	KindMap
	// KindSource is a source path.
	KindSource
	// KindNested is a group of named fields, such as a nested structure.
	KindNested
)

// KeyValue is one node of the value tree a rule field holds.
type KeyValue struct {
	Kind   ValueKind
	Str    string
	Int    int64
	Float  float64
	Bool   bool
	List   []KeyValue
	Map    []KeyEntry
	Source SourcePath
	Fields []KeyField
}

// KeyEntry is one entry of a map value.
type KeyEntry struct {
	Key   string
	Value KeyValue
}

// KeyField is a named, key-contributing attribute of a rule.
type KeyField struct {
	Name  string
	Value KeyValue
}

// NewKeyField wraps v as a named field.
func NewKeyField(name string, v any) (KeyField, error) {
	kv, err := NewKeyValue(v)
	if err != nil {
		return KeyField{}, zerr.With(err, "field", name)
	}
	return KeyField{Name: name, Value: kv}, nil
}

// MustKeyField is like NewKeyField but panics on error.
func MustKeyField(name string, v any) KeyField {
	f, err := NewKeyField(name, v)
	if err != nil {
		panic(err)
	}
	return f
}

// SourcesField creates a list field holding srcs in order.
func SourcesField(name string, srcs []SourcePath) KeyField {
	list := make([]KeyValue, len(srcs))
	for i, s := range srcs {
		list[i] = KeyValue{Kind: KindSource, Source: s}
	}
	return KeyField{Name: name, Value: KeyValue{Kind: KindList, List: list}}
}

// NestedField groups fields under a name.
func NestedField(name string, fields ...KeyField) KeyField {
	return KeyField{Name: name, Value: KeyValue{Kind: KindNested, Fields: fields}}
}

// NewKeyValue converts a Go value into the key value model. Unsupported types are
// rejected with ErrUnfoldableField.
//
//nolint:cyclop,gocyclo // one case per supported kind
func NewKeyValue(v any) (KeyValue, error) {
	switch val := v.(type) {
	case nil:
		return KeyValue{Kind: KindNull}, nil
	case KeyValue:
		return val, nil
	case string:
		return KeyValue{Kind: KindString, Str: val}, nil
	case bool:
		return KeyValue{Kind: KindBool, Bool: val}, nil
	case int:
		return KeyValue{Kind: KindInt, Int: int64(val)}, nil
	case int32:
		return KeyValue{Kind: KindInt, Int: int64(val)}, nil
	case int64:
		return KeyValue{Kind: KindInt, Int: val}, nil
	case float32:
		return KeyValue{Kind: KindFloat, Float: float64(val)}, nil
	case float64:
		return KeyValue{Kind: KindFloat, Float: val}, nil
	case SourcePath:
		return KeyValue{Kind: KindSource, Source: val}, nil
	case BuildTarget:
		return KeyValue{Kind: KindString, Str: val.String()}, nil
	case []SourcePath:
		return SourcesField("", val).Value, nil
	case []string:
		list := make([]KeyValue, len(val))
		for i, s := range val {
			list[i] = KeyValue{Kind: KindString, Str: s}
		}
		return KeyValue{Kind: KindList, List: list}, nil
	case []any:
		list := make([]KeyValue, len(val))
		for i, item := range val {
			kv, err := NewKeyValue(item)
			if err != nil {
				return KeyValue{}, err
			}
			list[i] = kv
		}
		return KeyValue{Kind: KindList, List: list}, nil
	case map[string]string:
		entries := make([]KeyEntry, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			entries = append(entries, KeyEntry{Key: k, Value: KeyValue{Kind: KindString, Str: val[k]}})
		}
		return KeyValue{Kind: KindMap, Map: entries}, nil
	case map[string]any:
		entries := make([]KeyEntry, 0, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			kv, err := NewKeyValue(val[k])
			if err != nil {
				return KeyValue{}, err
			}
			entries = append(entries, KeyEntry{Key: k, Value: kv})
		}
		return KeyValue{Kind: KindMap, Map: entries}, nil
	case []KeyField:
		return KeyValue{Kind: KindNested, Fields: val}, nil
	default:
		return KeyValue{}, zerr.With(ErrUnfoldableField, "value_type", fmt.Sprintf("%T", v))
	}
}

// Sources returns every source path reachable from the value, in fold order.
func (v KeyValue) Sources() []SourcePath {
	var out []SourcePath
	v.collectSources(&out)
	return out
}

func (v KeyValue) collectSources(out *[]SourcePath) {
	switch v.Kind {
	case KindSource:
		*out = append(*out, v.Source)
	case KindList:
		for _, item := range v.List {
			item.collectSources(out)
		}
	case KindMap:
		for _, e := range v.Map {
			e.Value.collectSources(out)
		}
	case KindNested:
		for _, f := range v.Fields {
			f.Value.collectSources(out)
		}
	case KindNull, KindString, KindInt, KindFloat, KindBool:
	}
}

// String renders the value deterministically for signatures and diffs.
func (v KeyValue) String() string {
	var sb strings.Builder
	v.render(&sb)
	return sb.String()
}

func (v KeyValue) render(sb *strings.Builder) {
	switch v.Kind {
	case KindNull:
		sb.WriteString("null")
	case KindString:
		sb.WriteString(strconv.Quote(v.Str))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case KindSource:
		sb.WriteString("src(" + v.Source.String() + ")")
	case KindList:
		sb.WriteByte('[')
		for i, item := range v.List {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.render(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, e := range v.Map {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.Quote(e.Key) + ": ")
			e.Value.render(sb)
		}
		sb.WriteByte('}')
	case KindNested:
		sb.WriteByte('(')
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name + "=")
			f.Value.render(sb)
		}
		sb.WriteByte(')')
	}
}
