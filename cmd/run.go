package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
)

var (
	runArgs []string
	runEnv  []string
)

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a Hardhat script with optional args and env",
	Long: `Run a Hardhat script (ts/js) and stream its output.

Examples:
  hhbridge run scripts/deploy.ts
  hhbridge run scripts/seed.ts --arg=--network --arg=base --env API_KEY=abc`,
	Args:        cobra.ExactArgs(1),
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := newRunner().RunScriptStreaming(cmd.Context(), args[0], runArgs, hardhat.ParseEnvPairs(runEnv), streamTo(cmd))
		return resultError("hardhat run "+args[0], res)
	},
}

func init() {
	runCmd.Flags().StringArrayVar(&runArgs, "arg", nil, "pass-through argument (repeatable)")
	runCmd.Flags().StringArrayVar(&runEnv, "env", nil, "environment variable KEY=VALUE (repeatable)")
}
