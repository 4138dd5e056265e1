package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var (
	updateDryRun bool
	updateSilent bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the package manager's update in the Hardhat project",
	Long: `Run "<package_manager> update" in the Hardhat project directory.

The exit status of the package manager is passed through.`,
	Args:        cobra.NoArgs,
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		pm := cfg.PackageManager
		flags := updateArgs(updateDryRun, updateSilent)

		fmt.Fprintln(out, ui.Info(fmt.Sprintf("Running '%s' in %s...", strings.Join(append([]string{pm, "update"}, flags...), " "), cfg.ProjectPath)))
		res := newRunner().With(hardhat.WithLauncher(pm)).RunStreaming(cmd.Context(), "update", flags, nil, streamTo(cmd))
		if !res.Successful() {
			return &exitCodeError{code: res.ExitCode, msg: fmt.Sprintf("%s update failed", pm)}
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%s update completed successfully.", pm)))
		return nil
	},
}

func updateArgs(dryRun, silent bool) []string {
	var args []string
	if dryRun {
		args = append(args, "--dry-run")
	}
	if silent {
		args = append(args, "--silent")
	}
	return args
}

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "show what would be updated without installing")
	updateCmd.Flags().BoolVar(&updateSilent, "silent", false, "reduce package manager output")
}
