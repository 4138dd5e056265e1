package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
	"github.com/Mohsinsiddi/hhbridge/internal/web3"
)

var verifyFlags struct {
	network    string
	chainID    int64
	contractID int64
	args       string
	queue      bool
	env        []string
}

var verifyCmd = &cobra.Command{
	Use:   "verify <address>",
	Short: "Verify a deployed contract on its block explorer",
	Long: `Run hardhat verify for a deployed contract. The network comes from
--network, else --chain-id, else the chain of --contract-id.

With --queue a verification job is queued for the contract and the result is
written to the contract's metadata. Only the redis queue driver defers the
work to "hhbridge worker"; with the memory driver the job runs before this
command exits.

Examples:
  hhbridge verify 0x1234... --network=base --args='["My Token","MTK"]'
  hhbridge verify 0x1234... --contract-id=7 --queue`,
	Args:        cobra.ExactArgs(1),
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		res, err := a.Web3.Verify(cmd.Context(), web3.VerifyRequest{
			Address:    args[0],
			Network:    verifyFlags.network,
			ChainID:    verifyFlags.chainID,
			ContractID: verifyFlags.contractID,
			ArgsJSON:   verifyFlags.args,
			Env:        hardhat.ParseEnvPairs(verifyFlags.env),
			Queue:      verifyFlags.queue,
		})
		if err != nil {
			return err
		}
		if res.Queued {
			fmt.Fprintln(out, ui.Success(fmt.Sprintf("Queued verification job for contract id=%d on network=%s.", verifyFlags.contractID, res.Network)))
			if a.Synchronous() {
				fmt.Fprintln(out, ui.Hint("The memory queue runs the job in this process before exit; use queue.driver=redis and `hhbridge worker` to defer it."))
			}
			return nil
		}
		if res.Output != "" {
			fmt.Fprintln(out, res.Output)
		}
		fmt.Fprintln(out, ui.Success("Verified on "+ui.Network(res.Network)))
		return nil
	},
}

func init() {
	f := &verifyFlags
	verifyCmd.Flags().StringVar(&f.network, "network", "", "Hardhat network name")
	verifyCmd.Flags().Int64Var(&f.chainID, "chain-id", 0, "chain id used to infer the network")
	verifyCmd.Flags().Int64Var(&f.contractID, "contract-id", 0, "contract row to infer the network from and to record the result on")
	verifyCmd.Flags().StringVar(&f.args, "args", "", "constructor arguments as a JSON array")
	verifyCmd.Flags().BoolVar(&f.queue, "queue", false, "queue a verification job instead of running now (requires --contract-id)")
	verifyCmd.Flags().StringArrayVar(&f.env, "env", nil, "environment variable KEY=VALUE (repeatable)")
}
