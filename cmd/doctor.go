package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/doctor"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var validateFix bool

func newDoctor() *doctor.Doctor {
	return doctor.New(newRunner(),
		doctor.WithPackageManager(cfg.PackageManager),
		doctor.WithLogger(logger.Named("doctor")),
	)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose path resolution and tool availability",
	Long: `Report the Hardhat project path, whether it exists and holds a
hardhat.config.{js,ts}, and the versions of node, the package manager and
hardhat. Always exits successfully.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rep := newDoctor().Diagnose(cmd.Context())
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Hardhat project path: "+ui.Addr(rep.ProjectPath))
		fmt.Fprintln(out, "Directory exists: "+ui.YesNo(rep.DirExists))
		fmt.Fprintln(out, "Config present: "+ui.YesNo(rep.ConfigPresent))
		for _, tool := range rep.Tools {
			status := ui.YesNo(false)
			if tool.Available {
				status = ui.Val(tool.Version)
			}
			fmt.Fprintf(out, "%s available: %s\n", tool.Name, status)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the Hardhat project setup",
	Long: `Check package.json, the Hardhat config, contracts/ and scripts/, the
recommended deploy/call scripts, installed dependencies and a trial compile.

Exits with failure only on critical issues. With --fix, missing directories
and script templates are created and dependencies installed before the
checks run again.`,
	Args:        cobra.NoArgs,
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Info("Validating Hardhat project setup..."))
		fmt.Fprintln(out)

		v, err := newDoctor().Validate(cmd.Context(), doctor.ValidateOptions{Fix: validateFix})
		if err != nil {
			return err
		}
		for _, f := range v.Fixed {
			fmt.Fprintln(out, ui.Success("Fixed: "+f))
		}
		for _, f := range v.Findings {
			fmt.Fprintln(out, renderFinding(f))
		}
		if len(v.Suggestions) > 0 {
			fmt.Fprintln(out)
			for _, s := range v.Suggestions {
				fmt.Fprintln(out, ui.Hint(s))
			}
		}
		fmt.Fprintln(out)

		switch {
		case !v.OK():
			return fmt.Errorf("validation failed with %d critical issue(s)", len(v.Issues()))
		case v.Clean():
			fmt.Fprintln(out, ui.Success("Hardhat project is ready for integration."))
		default:
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("Validation passed with %d warning(s).", len(v.Warnings()))))
		}
		return nil
	},
}

func renderFinding(f doctor.Finding) string {
	switch f.Level {
	case doctor.Critical:
		return ui.Err(f.Message)
	case doctor.Warning:
		return ui.Warn(f.Message)
	default:
		return ui.Success(f.Message)
	}
}

func init() {
	validateCmd.Flags().BoolVar(&validateFix, "fix", false, "attempt to fix issues automatically where possible")
}
