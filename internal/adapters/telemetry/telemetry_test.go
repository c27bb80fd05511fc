package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/ports"
)

func TestOTelTracer_ForwardsPlanAndOutput(t *testing.T) {
	t.Parallel()

	rec := newEventRecorder()
	tracer := telemetry.NewOTelTracer("test").WithRenderer(rec)
	ctx := context.Background()

	plan := ports.BuildPlan{Rules: []string{"//a:a"}, Targets: []string{"//a:a"}}
	tracer.EmitPlan(ctx, plan)

	_, span := tracer.Start(ctx, "//a:a")
	_, err := span.Write([]byte("partial line"))
	require.NoError(t, err)
	span.End()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []ports.BuildPlan{plan}, rec.plans)
	require.Len(t, rec.output, 1)
	for _, data := range rec.output {
		assert.Equal(t, "partial line", string(data), "End flushes buffered output")
	}
}

func TestOTelTracer_WithoutRenderer(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewOTelTracer("test")
	tracer.EmitPlan(context.Background(), ports.BuildPlan{})
	_, span := tracer.Start(context.Background(), "//a:a", ports.WithAttribute("n", 1))
	n, err := span.Write([]byte("dropped"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	span.End()
}

func TestSetup_BridgesOutcome(t *testing.T) {
	t.Parallel()

	rec := newEventRecorder()
	tracer, shutdown := telemetry.Setup("test", rec)
	defer func() { _ = shutdown(context.Background()) }()

	_, fetched := tracer.Start(context.Background(), "//ok:ok", ports.WithAttribute(ports.RuleTypeAttribute, "genrule"))
	fetched.SetAttribute(ports.OutcomeAttribute, "FETCHED_FROM_CACHE")
	fetched.SetAttribute(ports.CacheSourceAttribute, "remote")
	fetched.End()

	_, failed := tracer.Start(context.Background(), "//bad:bad")
	failed.RecordError(errors.New("exit status 1"))
	failed.SetAttribute(ports.OutcomeAttribute, "FAIL")
	failed.End()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.starts, 2)
	assert.Equal(t, "//ok:ok", rec.starts[0].target)
	require.Len(t, rec.outcomes, 2)
	assert.Equal(t, ports.RuleOutcome{Result: "FETCHED_FROM_CACHE", CacheSource: "remote"}, rec.outcomes[0])
	assert.Equal(t, "FAIL", rec.outcomes[1].Result)
	assert.EqualError(t, rec.outcomes[1].Err, "exit status 1")
}

func TestBridge_Parent(t *testing.T) {
	t.Parallel()

	rec := newEventRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(rec)))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	tracer := tp.Tracer("test-bridge")

	ctx, parent := tracer.Start(context.Background(), "build")
	_, child := tracer.Start(ctx, "//a:a")
	child.End()
	parent.End()

	require.Len(t, rec.starts, 2)
	assert.Empty(t, rec.starts[0].parentID)
	assert.Equal(t, rec.starts[0].spanID, rec.starts[1].parentID)
	assert.Equal(t, "//a:a", rec.starts[1].target)
	assert.Equal(t, []ports.RuleOutcome{{}, {}}, rec.outcomes)
}

func TestBridge_NilRenderer(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(nil)))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	_, span := tp.Tracer("nil").Start(context.Background(), "x")
	assert.NotPanics(t, func() { span.End() })
}

func TestNoOpTracer(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()
	tracer.EmitPlan(ctx, ports.BuildPlan{})
	got, span := tracer.Start(ctx, "x")
	assert.Equal(t, ctx, got)

	n, err := span.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	span.SetAttribute("k", 1)
	span.RecordError(errors.New("ignored"))
	span.End()
}
