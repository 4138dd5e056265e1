package hardhat

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultLauncher is prefixed to every Hardhat invocation.
var DefaultLauncher = []string{"npx", "hardhat"}

// Runner executes a fixed launcher inside a project directory.
type Runner struct {
	dir      string
	launcher []string
	log      *zap.SugaredLogger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLauncher replaces the launcher, e.g. WithLauncher("npm") for package
// manager commands.
func WithLauncher(launcher ...string) Option {
	return func(r *Runner) {
		r.launcher = append([]string(nil), launcher...)
	}
}

// WithLogger sets the logger used for per-invocation debug lines.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Runner rooted at projectPath.
func New(projectPath string, opts ...Option) *Runner {
	r := &Runner{
		dir:      projectPath,
		launcher: append([]string(nil), DefaultLauncher...),
		log:      zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With returns a copy of r with opts applied. r itself is not changed.
func (r *Runner) With(opts ...Option) *Runner {
	cp := &Runner{
		dir:      r.dir,
		launcher: append([]string(nil), r.launcher...),
		log:      r.log,
	}
	for _, opt := range opts {
		opt(cp)
	}
	return cp
}

// ProjectPath returns the working directory of every invocation.
func (r *Runner) ProjectPath() string {
	return r.dir
}

// Launcher returns a copy of the launcher argv prefix.
func (r *Runner) Launcher() []string {
	return append([]string(nil), r.launcher...)
}

// Run executes `<launcher> <command> <args...>` and returns stdout.
// A non-zero exit yields a *ProcessFailedError.
func (r *Runner) Run(ctx context.Context, command string, args []string, env map[string]string) (string, error) {
	res := r.TryRun(ctx, command, args, env)
	if !res.Successful() {
		return res.Stdout, &ProcessFailedError{Argv: r.argv(command, args), Result: res}
	}
	return res.Stdout, nil
}

// TryRun executes the command and returns the raw result without judging it.
func (r *Runner) TryRun(ctx context.Context, command string, args []string, env map[string]string) Result {
	cmd := r.command(ctx, command, args, env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	res.ExitCode = exitCode(err, &res)
	r.log.Debugw("process finished", "argv", cmd.Args, "dir", r.dir, "exit", res.ExitCode)
	return res
}

// RunStreaming executes the command, handing every output chunk to onOutput
// as it arrives. Callbacks are serialised. The aggregated result is returned
// once the process exits.
func (r *Runner) RunStreaming(ctx context.Context, command string, args []string, env map[string]string, onOutput func(Stream, string)) Result {
	cmd := r.command(ctx, command, args, env)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return notStarted(err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return notStarted(err)
	}
	if err := cmd.Start(); err != nil {
		res := notStarted(err)
		if onOutput != nil {
			onOutput(StreamErr, res.Stderr)
		}
		return res
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		stdout strings.Builder
		stderr strings.Builder
	)
	pump := func(rd io.Reader, s Stream, sink *strings.Builder) {
		defer wg.Done()
		buf := make([]byte, 4096)
		for {
			n, err := rd.Read(buf)
			if n > 0 {
				chunk := string(buf[:n])
				mu.Lock()
				sink.WriteString(chunk)
				if onOutput != nil {
					onOutput(s, chunk)
				}
				mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}

	wg.Add(2)
	go pump(stdoutPipe, StreamOut, &stdout)
	go pump(stderrPipe, StreamErr, &stderr)
	wg.Wait()

	waitErr := cmd.Wait()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	res.ExitCode = exitCode(waitErr, &res)
	r.log.Debugw("streamed process finished", "argv", cmd.Args, "dir", r.dir, "exit", res.ExitCode)
	return res
}

func (r *Runner) argv(command string, args []string) []string {
	argv := append([]string(nil), r.launcher...)
	if command != "" {
		argv = append(argv, command)
	}
	return append(argv, args...)
}

func (r *Runner) command(ctx context.Context, command string, args []string, env map[string]string) *exec.Cmd {
	argv := r.argv(command, args)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // argv comes from configuration and CLI flags
	cmd.Dir = r.dir
	cmd.Env = MergeEnv(os.Environ(), env)
	return cmd
}

// MergeEnv appends overrides to base as KEY=VALUE pairs in key order.
// Later entries win for exec, so overrides shadow inherited values.
func MergeEnv(base []string, overrides map[string]string) []string {
	out := append([]string(nil), base...)
	if len(overrides) == 0 {
		return out
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

// ParseEnvPairs turns KEY=VALUE strings into a map. Entries without '=' are skipped.
func ParseEnvPairs(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

func exitCode(err error, res *Result) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	if res.Stderr != "" && !strings.HasSuffix(res.Stderr, "\n") {
		res.Stderr += "\n"
	}
	res.Stderr += err.Error()
	return exitNotStarted
}

func notStarted(err error) Result {
	return Result{Stderr: err.Error(), ExitCode: exitNotStarted}
}
