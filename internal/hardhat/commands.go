package hardhat

import (
	"context"
	"strings"
)

// Compile runs `hardhat compile`.
func (r *Runner) Compile(ctx context.Context) (string, error) {
	return r.Run(ctx, "compile", nil, nil)
}

// Clean runs `hardhat clean`.
func (r *Runner) Clean(ctx context.Context) (string, error) {
	return r.Run(ctx, "clean", nil, nil)
}

// Test runs `hardhat test` with pass-through args.
func (r *Runner) Test(ctx context.Context, args []string, env map[string]string) (string, error) {
	return r.Run(ctx, "test", args, env)
}

// Node runs `hardhat node`; it blocks until the node exits.
func (r *Runner) Node(ctx context.Context, args []string, env map[string]string) (string, error) {
	return r.Run(ctx, "node", args, env)
}

// Help prints Hardhat's help, optionally for one subcommand.
func (r *Runner) Help(ctx context.Context, subcommand string) (string, error) {
	if subcommand != "" {
		return r.Run(ctx, subcommand, []string{"--help"}, nil)
	}
	return r.Run(ctx, "", []string{"--help"}, nil)
}

// Version returns the trimmed output of `<launcher> --version`.
func (r *Runner) Version(ctx context.Context) (string, bool) {
	res := r.TryRun(ctx, "", []string{"--version"}, nil)
	if !res.Successful() {
		return "", false
	}
	return strings.TrimSpace(res.Stdout), true
}

// RunScript runs `hardhat run <script> <args...>` and returns stdout.
func (r *Runner) RunScript(ctx context.Context, script string, args []string, env map[string]string) (string, error) {
	return r.Run(ctx, "run", scriptArgs(script, args), env)
}

// TryRunScript is the non-throwing form of RunScript.
func (r *Runner) TryRunScript(ctx context.Context, script string, args []string, env map[string]string) Result {
	return r.TryRun(ctx, "run", scriptArgs(script, args), env)
}

// RunScriptStreaming is RunScript with incremental output.
func (r *Runner) RunScriptStreaming(ctx context.Context, script string, args []string, env map[string]string, onOutput func(Stream, string)) Result {
	return r.RunStreaming(ctx, "run", scriptArgs(script, args), env, onOutput)
}

func scriptArgs(script string, args []string) []string {
	return append([]string{script}, args...)
}
