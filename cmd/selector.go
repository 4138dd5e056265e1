package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var selectorCmd = &cobra.Command{
	Use:   "selector <signature>",
	Short: "Compute the 4-byte selector recorded for a function call",
	Long: `Compute a 4-byte function selector from a signature. Parameter names
are dropped before hashing.

Examples:
  hhbridge selector "transfer(address,uint256)"            # 0xa9059cbb
  hhbridge selector "approve(address spender, uint256 v)"  # 0x095ea7b3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig := contract.NormalizeSignature(args[0])
		pairs := [][2]string{
			{"Signature", sig},
			{"Selector", ui.Val(contract.SelectorOf(sig))},
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Function Selector", pairs))
		return nil
	},
}
