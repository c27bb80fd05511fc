package shell_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newExecutor(t *testing.T, opts shell.Options) *shell.Executor {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return shell.NewExecutor(log, opts)
}

func execStep(dir string, env map[string]string, argv ...string) *domain.PreparedStep {
	return &domain.PreparedStep{Kind: domain.StepExec, Argv: argv, Env: env, Dir: dir}
}

func TestExecutor_LogsEachLine(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	gomock.InOrder(
		log.EXPECT().Debug("line1"),
		log.EXPECT().Debug("part1part2"),
	)
	executor := shell.NewExecutor(log, shell.Options{})

	step := execStep(t.TempDir(), nil, "sh", "-c", "echo line1; printf part1; sleep 0.1; echo part2")
	require.NoError(t, executor.Execute(context.Background(), step, io.Discard, io.Discard))
}

func TestExecutor_SeparatesStreams(t *testing.T) {
	t.Parallel()

	executor := newExecutor(t, shell.Options{})
	var stdout, stderr bytes.Buffer
	step := execStep(t.TempDir(), nil, "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, executor.Execute(context.Background(), step, &stdout, &stderr))

	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestExecutor_Environment(t *testing.T) {
	t.Setenv("KILN_TEST_LEAK", "host-secret")

	executor := newExecutor(t, shell.Options{})
	var stdout bytes.Buffer
	step := execStep(t.TempDir(), map[string]string{"GREETING": "hello"},
		"sh", "-c", `echo "$GREETING:${KILN_TEST_LEAK:-unset}"`)
	require.NoError(t, executor.Execute(context.Background(), step, &stdout, io.Discard))

	assert.Equal(t, "hello:unset\n", stdout.String())
}

func TestExecutor_WorkingDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	executor := newExecutor(t, shell.Options{})
	step := execStep(dir, nil, "sh", "-c", "echo built > out.txt")
	require.NoError(t, executor.Execute(context.Background(), step, io.Discard, io.Discard))

	got, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "built\n", string(got))
}

func TestExecutor_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		argv []string
	}{
		{name: "non-zero exit", argv: []string{"sh", "-c", "exit 3"}},
		{name: "missing command", argv: []string{"kiln-no-such-command-xyz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			executor := newExecutor(t, shell.Options{})
			err := executor.Execute(context.Background(), execStep(t.TempDir(), nil, tt.argv...), io.Discard, io.Discard)
			require.Error(t, err)
			require.ErrorContains(t, err, domain.ErrStepFailed.Error())
		})
	}
}

func TestExecutor_CancelTerminates(t *testing.T) {
	t.Parallel()

	executor := newExecutor(t, shell.Options{WaitDelay: 200 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := executor.Execute(ctx, execStep(t.TempDir(), nil, "sleep", "30"), io.Discard, io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecutor_FileSteps(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), domain.FilePerm))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.txt"), []byte("b"), domain.FilePerm))
	scratch := filepath.Join(root, "scratch")

	executor := newExecutor(t, shell.Options{})
	ctx := context.Background()
	steps := []*domain.PreparedStep{
		{Kind: domain.StepMkdir, Dst: filepath.Join(scratch, "empty")},
		{Kind: domain.StepCopy, Src: filepath.Join(src, "a.txt"), Dst: filepath.Join(scratch, "single", "a.txt")},
		{Kind: domain.StepCopy, Src: src, Dst: filepath.Join(scratch, "tree")},
		{Kind: domain.StepWrite, Dst: filepath.Join(scratch, "gen", "version.txt"), Content: []byte("v1")},
	}
	for _, s := range steps {
		require.NoError(t, executor.Execute(ctx, s, io.Discard, io.Discard), s.Kind.String())
	}

	assert.DirExists(t, filepath.Join(scratch, "empty"))
	for path, want := range map[string]string{
		"single/a.txt":      "a",
		"tree/a.txt":        "a",
		"tree/nested/b.txt": "b",
		"gen/version.txt":   "v1",
	} {
		got, err := os.ReadFile(filepath.Join(scratch, filepath.FromSlash(path)))
		require.NoError(t, err, path)
		assert.Equal(t, want, string(got), path)
	}
}

func TestExecutor_CopyMissingSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	executor := newExecutor(t, shell.Options{})
	step := &domain.PreparedStep{Kind: domain.StepCopy, Src: filepath.Join(root, "absent"), Dst: filepath.Join(root, "dst")}
	err := executor.Execute(context.Background(), step, io.Discard, io.Discard)
	require.ErrorContains(t, err, domain.ErrInputNotFound.Error())
}

func TestResolveEnvironment(t *testing.T) {
	t.Parallel()

	sys := []string{"PATH=/usr/bin", "HOME=/home/dev", "SECRET=1", "malformed"}
	got := shell.ResolveEnvironment(sys, map[string]string{"PATH": "/opt/bin", "CC": "clang"})
	assert.Equal(t, []string{"CC=clang", "HOME=/home/dev", "PATH=/opt/bin"}, got)
}
