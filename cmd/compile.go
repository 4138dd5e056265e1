package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
)

var compileEnv []string

var compileCmd = &cobra.Command{
	Use:         "compile",
	Short:       "Run hardhat compile in the configured project",
	Args:        cobra.NoArgs,
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := newRunner().RunStreaming(cmd.Context(), "compile", nil, hardhat.ParseEnvPairs(compileEnv), streamTo(cmd))
		return resultError("hardhat compile", res)
	},
}

var cleanCmd = &cobra.Command{
	Use:         "clean",
	Short:       "Run hardhat clean to drop the cache and artifacts",
	Args:        cobra.NoArgs,
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := newRunner().RunStreaming(cmd.Context(), "clean", nil, nil, streamTo(cmd))
		return resultError("hardhat clean", res)
	},
}

func init() {
	compileCmd.Flags().StringArrayVar(&compileEnv, "env", nil, "environment variable KEY=VALUE (repeatable)")
}
