package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
	"github.com/Mohsinsiddi/hhbridge/internal/web3"
)

var callFlags struct {
	args          string
	signature     string
	walletID      int64
	walletAddress string
	chainID       int64
	network       string
	script        string
	value         string
	env           []string
}

var callCmd = &cobra.Command{
	Use:   "call <contract-id-or-address> <function>",
	Short: "Queue a contract function call built by a Hardhat script",
	Long: `Run the call-data script for a known contract and record the result as a
pending transaction. Without a wallet flag the contract's creator signs.

Examples:
  hhbridge call 7 transfer --args='["0xabc...","1000"]'
  hhbridge call 0x1234... mint --signature='mint(address,uint256)' --wallet-id=2`,
	Args:        cobra.ExactArgs(2),
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		script := callFlags.script
		if script == "" {
			script = web3.DefaultCallScript
		}
		fmt.Fprintln(out, ui.Info(fmt.Sprintf("Fetching call data from Hardhat (%s)...", script)))

		tx, err := a.Web3.Call(cmd.Context(), web3.CallRequest{
			Contract:      args[0],
			Function:      args[1],
			ArgsJSON:      callFlags.args,
			Signature:     callFlags.signature,
			WalletID:      callFlags.walletID,
			WalletAddress: callFlags.walletAddress,
			ChainID:       callFlags.chainID,
			Network:       callFlags.network,
			Script:        script,
			Value:         callFlags.value,
			Env:           hardhat.ParseEnvPairs(callFlags.env),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Enqueued function call transaction id=%d (status=%s).", tx.ID, tx.Status)))
		if sel := tx.FunctionParams.String("selector"); sel != "" {
			fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%s selector %s", tx.Function, sel)))
		}
		return nil
	},
}

func init() {
	f := &callFlags
	callCmd.Flags().StringVar(&f.args, "args", "", "function arguments as a JSON array")
	callCmd.Flags().StringVar(&f.signature, "signature", "", "full function signature, e.g. transfer(address,uint256)")
	addTxFlags(callCmd, &f.walletID, &f.walletAddress, &f.chainID, &f.network, &f.script, &f.value, &f.env)
}
