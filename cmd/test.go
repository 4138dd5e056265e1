package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
)

var (
	testArgs []string
	testEnv  []string
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run hardhat test with optional args and env",
	Long: `Run the Hardhat test suite and stream its output.

Examples:
  hhbridge test
  hhbridge test --arg=--network --arg=localhost --env REPORT_GAS=1`,
	Args:        cobra.NoArgs,
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := newRunner().RunStreaming(cmd.Context(), "test", testArgs, hardhat.ParseEnvPairs(testEnv), streamTo(cmd))
		return resultError("hardhat test", res)
	},
}

func init() {
	testCmd.Flags().StringArrayVar(&testArgs, "arg", nil, "pass-through argument (repeatable)")
	testCmd.Flags().StringArrayVar(&testEnv, "env", nil, "environment variable KEY=VALUE (repeatable)")
}
