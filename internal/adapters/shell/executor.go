// Package shell runs rule steps: commands in a PTY or over pipes, and the file
// operations rules declare.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StepExecutor = (*Executor)(nil)

// DefaultWaitDelay is how long a command may keep running after SIGTERM before it is killed.
const DefaultWaitDelay = 5 * time.Second

// Options configure an Executor.
type Options struct {
	// UsePTY runs commands attached to a pseudo-terminal. Stdout and stderr are merged.
	// If a PTY cannot be allocated the executor falls back to pipes.
	UsePTY bool
	// WaitDelay overrides DefaultWaitDelay.
	WaitDelay time.Duration
}

// Executor implements ports.StepExecutor.
type Executor struct {
	logger ports.Logger
	opts   Options
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger, opts Options) *Executor {
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}
	return &Executor{logger: logger, opts: opts}
}

// Execute runs one prepared step.
func (e *Executor) Execute(ctx context.Context, step *domain.PreparedStep, stdout, stderr io.Writer) error {
	var err error
	switch step.Kind {
	case domain.StepExec:
		err = e.run(ctx, step, stdout, stderr)
	case domain.StepCopy:
		err = copyPath(step.Src, step.Dst)
	case domain.StepMkdir:
		err = os.MkdirAll(step.Dst, domain.DirPerm)
	case domain.StepWrite:
		err = writeFile(step.Dst, step.Content)
	default:
		err = zerr.With(zerr.New("unknown step kind"), "kind", step.Kind.String())
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStepFailed.Error()), "step", step.Kind.String())
	}
	return nil
}

func (e *Executor) run(ctx context.Context, step *domain.PreparedStep, stdout, stderr io.Writer) error {
	if len(step.Argv) == 0 {
		return nil
	}
	name := step.Argv[0]
	env := resolveEnvironment(os.Environ(), step.Env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, env); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, step.Argv[1:]...) //nolint:gosec // rule provided command
	cmd.Args[0] = name
	cmd.Dir = step.Dir
	cmd.Env = env
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.opts.WaitDelay

	stdoutLog := &logWriter{logger: e.logger}
	stderrLog := &logWriter{logger: e.logger}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()
	outW := io.MultiWriter(stdoutLog, stdout)
	errW := io.MultiWriter(stderrLog, stderr)

	var err error
	if e.opts.UsePTY {
		err = runPTY(cmd, outW)
		if errors.Is(err, errNoPTY) {
			err = runPipes(cmd, outW, errW)
		}
	} else {
		err = runPipes(cmd, outW, errW)
	}
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(ctxErr, err)
	}
	return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
}

var errNoPTY = errors.New("pty unavailable")

func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		if cmd.Process == nil {
			return errors.Join(errNoPTY, err)
		}
		return err
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// The PTY merges stdout and stderr.
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	_ = ptmx.Close()
	<-ioDone
	return err
}

func runPipes(cmd *exec.Cmd, stdout, stderr io.Writer) error {
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInputNotFound.Error()), "path", src)
	}
	if !info.IsDir() {
		return copyFile(src, dst, info.Mode().Perm())
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, domain.DirPerm)
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(p, target, fi.Mode().Perm())
	})
}

func copyFile(src, dst string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return err
	}
	in, err := os.Open(src) //nolint:gosec // Path is a declared rule input
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode) //nolint:gosec // Path is inside the scratch directory
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func writeFile(dst string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return err
	}
	return os.WriteFile(dst, content, domain.FilePerm)
}

// logWriter forwards complete lines to the logger at debug level.
type logWriter struct {
	logger ports.Logger
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	// PTYs may introduce \r.
	w.logger.Debug(strings.TrimSuffix(string(line), "\r"))
}

// allowListedEnvVars are the host variables a step inherits. Everything else comes
// from the rule.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
	"LANG": {},
}

// resolveEnvironment layers the step environment over the allow-listed host variables.
// The result is sorted.
func resolveEnvironment(sysEnv []string, stepEnv map[string]string) []string {
	envMap := make(map[string]string, len(stepEnv)+len(allowListedEnvVars))
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	for k, v := range stepEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if v, ok := strings.CutPrefix(e, "PATH="); ok {
			path = v
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
