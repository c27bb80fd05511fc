// Package codec serializes target graphs so that a build can start from a dump instead
// of parsing build files. A dump is a zstd-framed, deterministically marshaled
// protobuf Struct.
package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ ports.GraphCodec = (*Codec)(nil)

const formatVersion = "kiln.state.v1"

// Codec implements ports.GraphCodec.
type Codec struct{}

// New creates a Codec.
func New() *Codec {
	return &Codec{}
}

// Encode writes graph to w.
func (c *Codec) Encode(w io.Writer, graph *domain.TargetGraph) error {
	nodes := make([]any, 0, graph.Len())
	for n := range graph.Walk() {
		deps := make([]any, len(n.Deps))
		for i, d := range n.Deps {
			deps[i] = d.String()
		}
		nodes = append(nodes, map[string]any{
			"target": n.Target.String(),
			"type":   n.Type,
			"deps":   deps,
			"args":   n.Args,
		})
	}
	st, err := structpb.NewStruct(map[string]any{
		"version":     formatVersion,
		"fingerprint": graph.Fingerprint(),
		"nodes":       nodes,
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(st)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	if err := enc.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	return nil
}

// Decode reads a graph written by Encode. The graph is validated again and its
// fingerprint must match the recorded one.
func (c *Codec) Decode(r io.Reader) (*domain.TargetGraph, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}

	st := new(structpb.Struct)
	if err := proto.Unmarshal(data, st); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	dump := st.AsMap()
	if v, _ := dump["version"].(string); v != formatVersion {
		return nil, zerr.With(domain.ErrStateDumpFailed, "version", v)
	}

	raw, _ := dump["nodes"].([]any)
	nodes := make([]*domain.TargetNode, 0, len(raw))
	for _, item := range raw {
		n, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	graph, err := domain.NewTargetGraph(nodes)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	if fp, _ := dump["fingerprint"].(string); fp != graph.Fingerprint() {
		return nil, zerr.With(domain.ErrStateDumpFailed, "fingerprint", fp)
	}
	return graph, nil
}

func decodeNode(item any) (*domain.TargetNode, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return nil, zerr.With(domain.ErrStateDumpFailed, "node", item)
	}
	ts, _ := m["target"].(string)
	target, err := domain.ParseBuildTarget(ts)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateDumpFailed.Error())
	}
	ruleType, _ := m["type"].(string)
	rawDeps, _ := m["deps"].([]any)
	deps := make([]domain.BuildTarget, 0, len(rawDeps))
	for _, d := range rawDeps {
		s, _ := d.(string)
		dep, err := domain.ParseBuildTarget(s)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrStateDumpFailed.Error()), "target", ts)
		}
		deps = append(deps, dep)
	}
	args, _ := m["args"].(map[string]any)
	return domain.NewTargetNode(target, ruleType, args, deps)
}
