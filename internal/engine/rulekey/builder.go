package rulekey

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"math"

	"go.trai.ch/kiln/internal/core/domain"
)

// Value tags. Every folded value starts with one so that values of different kinds
// never produce the same byte stream.
const (
	tagNull byte = iota + 1
	tagString
	tagInt
	tagFloat
	tagBool
	tagList
	tagMap
	tagNested
	tagField
	tagFileSource
	tagTargetSource
	tagUsedInput
	tagUnusedInput
	tagDep
	tagStep
	tagOutputs
)

// builder accumulates length-prefixed values into a SHA-256 digest.
type builder struct {
	h   hash.Hash
	buf [binary.MaxVarintLen64]byte
}

func newBuilder() *builder {
	return &builder{h: sha256.New()}
}

func (b *builder) tag(t byte) {
	b.buf[0] = t
	_, _ = b.h.Write(b.buf[:1])
}

func (b *builder) uvarint(n uint64) {
	l := binary.PutUvarint(b.buf[:], n)
	_, _ = b.h.Write(b.buf[:l])
}

func (b *builder) str(s string) {
	b.uvarint(uint64(len(s)))
	_, _ = b.h.Write([]byte(s))
}

func (b *builder) bytes(p []byte) {
	b.uvarint(uint64(len(p)))
	_, _ = b.h.Write(p)
}

func (b *builder) fixed(n uint64) {
	binary.BigEndian.PutUint64(b.buf[:8], n)
	_, _ = b.h.Write(b.buf[:8])
}

func (b *builder) key(k domain.RuleKey) {
	_, _ = b.h.Write(k[:])
}

func (b *builder) sum() domain.RuleKey {
	var k domain.RuleKey
	copy(k[:], b.h.Sum(nil))
	return k
}

// sourceFolder folds one source path; each key flavor supplies its own.
type sourceFolder func(b *builder, src domain.SourcePath) error

func (b *builder) field(f domain.KeyField, fold sourceFolder) error {
	b.tag(tagField)
	b.str(f.Name)
	return b.value(f.Value, fold)
}

//nolint:cyclop // one case per value kind
func (b *builder) value(v domain.KeyValue, fold sourceFolder) error {
	switch v.Kind {
	case domain.KindNull:
		b.tag(tagNull)
	case domain.KindString:
		b.tag(tagString)
		b.str(v.Str)
	case domain.KindInt:
		b.tag(tagInt)
		b.fixed(uint64(v.Int))
	case domain.KindFloat:
		b.tag(tagFloat)
		b.fixed(math.Float64bits(v.Float))
	case domain.KindBool:
		b.tag(tagBool)
		if v.Bool {
			b.uvarint(1)
		} else {
			b.uvarint(0)
		}
	case domain.KindSource:
		return fold(b, v.Source)
	case domain.KindList:
		b.tag(tagList)
		b.uvarint(uint64(len(v.List)))
		for _, item := range v.List {
			if err := b.value(item, fold); err != nil {
				return err
			}
		}
	case domain.KindMap:
		b.tag(tagMap)
		b.uvarint(uint64(len(v.Map)))
		for _, e := range v.Map {
			b.str(e.Key)
			if err := b.value(e.Value, fold); err != nil {
				return err
			}
		}
	case domain.KindNested:
		b.tag(tagNested)
		b.uvarint(uint64(len(v.Fields)))
		for _, f := range v.Fields {
			if err := b.field(f, fold); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) step(s *domain.Step, fold sourceFolder) error {
	b.tag(tagStep)
	b.str(s.Kind.String())
	b.uvarint(uint64(len(s.Argv)))
	for _, a := range s.Argv {
		b.str(a)
	}
	env, _ := domain.NewKeyValue(s.Env)
	if err := b.value(env, fold); err != nil {
		return err
	}
	if s.Kind == domain.StepCopy {
		if err := fold(b, s.Src); err != nil {
			return err
		}
	}
	b.str(s.Dst)
	b.bytes(s.Content)
	return nil
}
