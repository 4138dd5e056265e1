// Package doctor inspects a Hardhat project: tool availability, layout and a
// trial compilation.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
)

// Hardhat config file names, in lookup order.
var configFiles = []string{"hardhat.config.ts", "hardhat.config.js"}

// Tool is the availability of one executable.
type Tool struct {
	Name      string
	Version   string
	Available bool
}

// Report is the outcome of Diagnose.
type Report struct {
	ProjectPath   string
	DirExists     bool
	ConfigPresent bool
	Tools         []Tool
}

// Doctor runs diagnostics against a Hardhat project.
type Doctor struct {
	runner         *hardhat.Runner
	packageManager string
	log            *zap.SugaredLogger
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithPackageManager sets the package manager binary (npm, pnpm, yarn).
func WithPackageManager(pm string) Option {
	return func(d *Doctor) {
		if pm != "" {
			d.packageManager = pm
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Doctor) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a Doctor for the project runner points at.
func New(runner *hardhat.Runner, opts ...Option) *Doctor {
	d := &Doctor{runner: runner, packageManager: "npm", log: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diagnose reports the project path, its layout and the versions of node,
// the package manager and hardhat. node and the package manager are probed
// from the working directory, hardhat from the project. It never fails.
func (d *Doctor) Diagnose(ctx context.Context) Report {
	path := d.runner.ProjectPath()
	rep := Report{
		ProjectPath:   path,
		DirExists:     isDir(path),
		ConfigPresent: configFile(path) != "",
	}
	rep.Tools = []Tool{
		d.tool(ctx, "node", hardhat.New("", hardhat.WithLauncher("node"), hardhat.WithLogger(d.log))),
		d.tool(ctx, d.packageManager, hardhat.New("", hardhat.WithLauncher(d.packageManager), hardhat.WithLogger(d.log))),
		d.tool(ctx, "hardhat", d.runner),
	}
	return rep
}

func (d *Doctor) tool(ctx context.Context, name string, r *hardhat.Runner) Tool {
	v, ok := r.Version(ctx)
	d.log.Debugw("tool probe", "tool", name, "available", ok, "version", v)
	return Tool{Name: name, Version: v, Available: ok}
}

// StartupWarnings returns the problems worth reporting before any Hardhat
// command runs against path.
func StartupWarnings(path string) []string {
	if !isDir(path) {
		return []string{fmt.Sprintf("Hardhat project directory not found at: %s", path)}
	}
	if configFile(path) == "" {
		return []string{fmt.Sprintf("No hardhat.config.js or hardhat.config.ts in %s", path)}
	}
	return nil
}

// configFile returns the name of the Hardhat config in dir, or "".
func configFile(dir string) string {
	for _, name := range configFiles {
		if fileExists(filepath.Join(dir, name)) {
			return name
		}
	}
	return ""
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
