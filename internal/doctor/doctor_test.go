package doctor_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Mohsinsiddi/hhbridge/internal/doctor"
	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
)

// fakeHardhat answers --version and compile; compile leaves a marker file.
const fakeHardhat = `case "$1" in
  --version) echo 2.22.0 ;;
  compile) touch compiled.marker; echo "Compiled 1 Solidity file" ;;
  *) exit 1 ;;
esac`

func newDoctor(t *testing.T, dir, script string, opts ...doctor.Option) *doctor.Doctor {
	t.Helper()
	r := hardhat.New(dir, hardhat.WithLauncher("sh", "-c", script, "sh"))
	opts = append([]doctor.Option{doctor.WithLogger(zaptest.NewLogger(t).Sugar())}, opts...)
	return doctor.New(r, opts...)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// project lays out a complete Hardhat project.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write(t, filepath.Join(dir, "package.json"), `{"devDependencies":{"hardhat":"^2.22.0"}}`)
	write(t, filepath.Join(dir, "hardhat.config.ts"), "export default {};\n")
	write(t, filepath.Join(dir, "contracts", "Token.sol"), "pragma solidity ^0.8.0;\n")
	write(t, filepath.Join(dir, "scripts", "deploy-data.ts"), "\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	return dir
}

func compiled(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "compiled.marker"))
	return err == nil
}

func TestDiagnoseMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blockchain")
	rep := newDoctor(t, dir, fakeHardhat).Diagnose(context.Background())

	assert.Equal(t, dir, rep.ProjectPath)
	assert.False(t, rep.DirExists)
	assert.False(t, rep.ConfigPresent)
	require.Len(t, rep.Tools, 3)
	assert.Equal(t, "hardhat", rep.Tools[2].Name)
	assert.False(t, rep.Tools[2].Available)
}

func TestDiagnoseProject(t *testing.T) {
	dir := project(t)
	rep := newDoctor(t, dir, fakeHardhat, doctor.WithPackageManager("pnpm")).Diagnose(context.Background())

	assert.True(t, rep.DirExists)
	assert.True(t, rep.ConfigPresent)
	assert.Equal(t, "pnpm", rep.Tools[1].Name)
	assert.Equal(t, doctor.Tool{Name: "hardhat", Version: "2.22.0", Available: true}, rep.Tools[2])
}

func TestStartupWarnings(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "blockchain")
	warnings := doctor.StartupWarnings(missing)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "directory not found")

	dir := t.TempDir()
	warnings = doctor.StartupWarnings(dir)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "hardhat.config")

	assert.Empty(t, doctor.StartupWarnings(project(t)))
}

func TestValidateMissingDirectoryStops(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	v, err := newDoctor(t, dir, fakeHardhat).Validate(context.Background(), doctor.ValidateOptions{Fix: true})
	require.NoError(t, err)

	assert.False(t, v.OK())
	require.Len(t, v.Findings, 1)
	assert.Contains(t, v.Issues()[0], "not found at: "+dir)
	assert.NoDirExists(t, dir)
}

func TestValidateCleanProject(t *testing.T) {
	dir := project(t)
	v, err := newDoctor(t, dir, fakeHardhat).Validate(context.Background(), doctor.ValidateOptions{})
	require.NoError(t, err)

	assert.True(t, v.Clean(), "warnings: %v issues: %v", v.Warnings(), v.Issues())
	assert.Equal(t, []string{"Token.sol"}, v.Contracts)
	assert.Equal(t, "Compiled 1 Solidity file", v.CompileOutput)
	assert.True(t, compiled(dir))
}

func TestValidateCriticalIssuesSkipCompile(t *testing.T) {
	tests := []struct {
		name  string
		setup func(dir string)
		issue string
	}{
		{"missing package.json", func(dir string) { os.Remove(filepath.Join(dir, "package.json")) }, "package.json not found"},
		{"invalid package.json", func(dir string) { os.WriteFile(filepath.Join(dir, "package.json"), []byte("{"), 0o644) }, "not valid JSON"},
		{"missing config", func(dir string) { os.Remove(filepath.Join(dir, "hardhat.config.ts")) }, "config file not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := project(t)
			tt.setup(dir)

			v, err := newDoctor(t, dir, fakeHardhat).Validate(context.Background(), doctor.ValidateOptions{})
			require.NoError(t, err)
			assert.False(t, v.OK())
			require.Len(t, v.Issues(), 1)
			assert.Contains(t, v.Issues()[0], tt.issue)
			assert.False(t, compiled(dir))
		})
	}
}

func TestValidateWarningsOnly(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "package.json"), `{"dependencies":{"ethers":"^6"}}`)
	write(t, filepath.Join(dir, "hardhat.config.js"), "module.exports = {};\n")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "contracts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))

	v, err := newDoctor(t, dir, fakeHardhat).Validate(context.Background(), doctor.ValidateOptions{})
	require.NoError(t, err)

	assert.True(t, v.OK())
	assert.False(t, v.Clean())
	assert.ElementsMatch(t, []string{
		"Hardhat not found in package.json dependencies",
		"No .sol contract files found in contracts/",
		"No recommended integration scripts found",
		"node_modules/ directory not found - dependencies may not be installed",
	}, v.Warnings())
	assert.NotEmpty(t, v.Suggestions)
	assert.True(t, compiled(dir))
}

func TestValidateCompileFailureIsWarning(t *testing.T) {
	dir := project(t)
	v, err := newDoctor(t, dir, `echo "HH600: compilation failed" >&2; exit 1`).Validate(context.Background(), doctor.ValidateOptions{})
	require.NoError(t, err)

	assert.True(t, v.OK())
	require.Len(t, v.Warnings(), 1)
	assert.Contains(t, v.Warnings()[0], "Hardhat compilation failed")
}

func TestValidateFix(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "package.json"), `{"devDependencies":{"hardhat":"^2.22.0"}}`)
	write(t, filepath.Join(dir, "hardhat.config.ts"), "export default {};\n")

	pm := filepath.Join(t.TempDir(), "fakepm")
	require.NoError(t, os.WriteFile(pm, []byte("#!/bin/sh\n[ \"$1\" = install ] && mkdir -p node_modules\n"), 0o755))

	v, err := newDoctor(t, dir, fakeHardhat, doctor.WithPackageManager(pm)).Validate(context.Background(), doctor.ValidateOptions{Fix: true})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"created contracts/",
		"created scripts/",
		"wrote scripts/call-data.ts",
		"wrote scripts/deploy-data.ts",
		"ran " + pm + " install",
	}, v.Fixed)
	assert.FileExists(t, filepath.Join(dir, "scripts", "deploy-data.ts"))
	assert.FileExists(t, filepath.Join(dir, "scripts", "call-data.ts"))
	assert.DirExists(t, filepath.Join(dir, "node_modules"))

	assert.True(t, v.OK())
	assert.Equal(t, []string{"No .sol contract files found in contracts/"}, v.Warnings())
}

func TestFixKeepsExistingScripts(t *testing.T) {
	dir := project(t)
	custom := filepath.Join(dir, "scripts", "deploy-data.ts")
	write(t, custom, "// custom\n")

	v, err := newDoctor(t, dir, fakeHardhat).Validate(context.Background(), doctor.ValidateOptions{Fix: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"wrote scripts/call-data.ts"}, v.Fixed)

	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Equal(t, "// custom\n", string(data))
}

func TestTemplates(t *testing.T) {
	for _, name := range []string{"deploy-data.ts", "call-data.ts"} {
		data, err := doctor.Template(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "JSON.stringify")
		assert.Contains(t, string(data), "data:")
	}
	_, err := doctor.Template("missing.ts")
	assert.Error(t, err)
}
