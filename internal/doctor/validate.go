package doctor

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
)

//go:embed templates/*.ts
var templates embed.FS

// Scripts whose presence marks a project as wired for deploy/call.
var recommendedScripts = []string{"deploy-data.ts", "deploy-data.js", "call-data.ts", "call-data.js"}

// Level is the severity of a finding.
type Level int

const (
	Pass Level = iota
	Warning
	Critical
)

// Finding is one line of a validation run.
type Finding struct {
	Level   Level
	Message string
}

// Validation is the outcome of Validate.
type Validation struct {
	ProjectPath   string
	Findings      []Finding
	Suggestions   []string
	Fixed         []string
	Contracts     []string
	CompileOutput string
}

// Issues returns the critical findings.
func (v *Validation) Issues() []string { return v.messages(Critical) }

// Warnings returns the warning findings.
func (v *Validation) Warnings() []string { return v.messages(Warning) }

// OK reports whether no critical issue was found.
func (v *Validation) OK() bool { return len(v.Issues()) == 0 }

// Clean reports whether neither issues nor warnings were found.
func (v *Validation) Clean() bool { return v.OK() && len(v.Warnings()) == 0 }

func (v *Validation) messages(l Level) []string {
	var out []string
	for _, f := range v.Findings {
		if f.Level == l {
			out = append(out, f.Message)
		}
	}
	return out
}

func (v *Validation) pass(format string, args ...any) {
	v.Findings = append(v.Findings, Finding{Pass, fmt.Sprintf(format, args...)})
}

func (v *Validation) warn(format string, args ...any) {
	v.Findings = append(v.Findings, Finding{Warning, fmt.Sprintf(format, args...)})
}

func (v *Validation) fail(format string, args ...any) {
	v.Findings = append(v.Findings, Finding{Critical, fmt.Sprintf(format, args...)})
}

// ValidateOptions controls Validate.
type ValidateOptions struct {
	// Fix creates missing directories and helper scripts, installs
	// dependencies when node_modules is missing, then validates again.
	Fix bool
}

// Validate checks the project layout. Only critical issues make the result
// not OK; a missing project directory stops validation immediately. The
// trial compilation runs only when no issue was found.
func (d *Doctor) Validate(ctx context.Context, opts ValidateOptions) (*Validation, error) {
	v := d.validate(ctx)
	if !opts.Fix || !isDir(v.ProjectPath) {
		return v, nil
	}
	fixed, err := d.fix(ctx)
	if err != nil {
		return v, err
	}
	if len(fixed) == 0 {
		return v, nil
	}
	again := d.validate(ctx)
	again.Fixed = fixed
	return again, nil
}

func (d *Doctor) validate(ctx context.Context) *Validation {
	path := d.runner.ProjectPath()
	v := &Validation{ProjectPath: path}

	if !isDir(path) {
		v.fail("Hardhat project directory not found at: %s", path)
		v.Suggestions = append(v.Suggestions, "Expected layout: application at /path/app, Hardhat at /path/blockchain")
		return v
	}
	v.pass("Hardhat project directory found at: %s", path)

	d.checkPackageJSON(v, path)

	if name := configFile(path); name != "" {
		v.pass("Hardhat config found: %s", name)
	} else {
		v.fail("Hardhat config file not found (hardhat.config.js or hardhat.config.ts)")
	}

	contracts := filepath.Join(path, "contracts")
	if !isDir(contracts) {
		v.warn("contracts/ directory not found")
		v.Suggestions = append(v.Suggestions, "Create contracts directory: mkdir contracts")
	} else {
		v.pass("contracts/ directory exists")
		files, _ := filepath.Glob(filepath.Join(contracts, "*.sol"))
		for _, f := range files {
			v.Contracts = append(v.Contracts, filepath.Base(f))
		}
		if len(files) == 0 {
			v.warn("No .sol contract files found in contracts/")
		} else {
			v.pass("Found %d contract file(s)", len(files))
		}
	}

	scripts := filepath.Join(path, "scripts")
	if !isDir(scripts) {
		v.warn("scripts/ directory not found")
		v.Suggestions = append(v.Suggestions, "Create scripts directory: mkdir scripts")
	} else {
		v.pass("scripts/ directory exists")
		found := false
		for _, name := range recommendedScripts {
			if fileExists(filepath.Join(scripts, name)) {
				v.pass("Found recommended script: %s", name)
				found = true
			}
		}
		if !found {
			v.warn("No recommended integration scripts found")
			v.Suggestions = append(v.Suggestions, "Consider adding deploy-data.ts and call-data.ts (validate --fix writes them)")
		}
	}

	if !isDir(filepath.Join(path, "node_modules")) {
		v.warn("node_modules/ directory not found - dependencies may not be installed")
		v.Suggestions = append(v.Suggestions, fmt.Sprintf("Run: cd %s && %s install", path, d.packageManager))
	} else {
		v.pass("node_modules/ directory exists")
	}

	if v.OK() {
		out, err := d.runner.Compile(ctx)
		if err != nil {
			v.warn("Hardhat compilation failed: %v", err)
		} else {
			v.pass("Hardhat compilation successful")
			v.CompileOutput = strings.TrimSpace(out)
		}
	}
	return v
}

func (d *Doctor) checkPackageJSON(v *Validation, path string) {
	data, err := os.ReadFile(filepath.Join(path, "package.json"))
	if err != nil {
		v.fail("package.json not found in Hardhat project")
		return
	}
	v.pass("package.json exists")

	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		v.fail("package.json is not valid JSON")
		return
	}
	_, dev := pkg.DevDependencies["hardhat"]
	_, dep := pkg.Dependencies["hardhat"]
	if !dev && !dep {
		v.warn("Hardhat not found in package.json dependencies")
		v.Suggestions = append(v.Suggestions, fmt.Sprintf("Run: %s install --save-dev hardhat", d.packageManager))
		return
	}
	v.pass("Hardhat dependency found in package.json")
}

// fix applies the automatic repairs and returns what it changed.
func (d *Doctor) fix(ctx context.Context) ([]string, error) {
	path := d.runner.ProjectPath()
	var fixed []string

	for _, dir := range []string{"contracts", "scripts"} {
		full := filepath.Join(path, dir)
		if isDir(full) {
			continue
		}
		if err := os.MkdirAll(full, 0o755); err != nil {
			return fixed, fmt.Errorf("creating %s/: %w", dir, err)
		}
		fixed = append(fixed, "created "+dir+"/")
	}

	wrote, err := writeTemplates(filepath.Join(path, "scripts"))
	if err != nil {
		return fixed, err
	}
	fixed = append(fixed, wrote...)

	if !isDir(filepath.Join(path, "node_modules")) && fileExists(filepath.Join(path, "package.json")) {
		pm := d.runner.With(hardhat.WithLauncher(d.packageManager))
		res := pm.TryRun(ctx, "install", nil, nil)
		if !res.Successful() {
			d.log.Warnw("dependency install failed", "package_manager", d.packageManager, "exit", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
		} else {
			fixed = append(fixed, "ran "+d.packageManager+" install")
		}
	}
	return fixed, nil
}

// writeTemplates writes every bundled helper script missing from dir.
func writeTemplates(dir string) ([]string, error) {
	entries, err := templates.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	var wrote []string
	for _, e := range entries {
		dst := filepath.Join(dir, e.Name())
		if fileExists(dst) {
			continue
		}
		data, err := templates.ReadFile("templates/" + e.Name())
		if err != nil {
			return wrote, err
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return wrote, fmt.Errorf("writing %s: %w", dst, err)
		}
		wrote = append(wrote, "wrote scripts/"+e.Name())
	}
	return wrote, nil
}

// Template returns a bundled helper script by file name.
func Template(name string) ([]byte, error) {
	return templates.ReadFile("templates/" + name)
}
