package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/hardhat"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
	"github.com/Mohsinsiddi/hhbridge/internal/web3"
)

var deployFlags struct {
	args          string
	walletID      int64
	walletAddress string
	chainID       int64
	network       string
	script        string
	value         string
	autoVerify    bool
	env           []string
}

var deployCmd = &cobra.Command{
	Use:   "deploy <artifact>",
	Short: "Queue a contract deployment built by a Hardhat script",
	Long: `Run the deploy-data script for an artifact and record the result as a
pending contract-creation transaction. Signing, broadcasting and confirmation
are left to the transaction pipeline.

Examples:
  hhbridge deploy MyToken --args='["My Token","MTK"]' --wallet-id=1 --chain-id=8453
  hhbridge deploy MyNFT --wallet-address=0xabc... --network=base --auto-verify`,
	Args:        cobra.ExactArgs(1),
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		script := deployFlags.script
		if script == "" {
			script = web3.DefaultDeployScript
		}
		fmt.Fprintln(out, ui.Info(fmt.Sprintf("Fetching deploy data from Hardhat (%s)...", script)))

		tx, err := a.Web3.Deploy(cmd.Context(), web3.DeployRequest{
			Artifact:      args[0],
			ArgsJSON:      deployFlags.args,
			WalletID:      deployFlags.walletID,
			WalletAddress: deployFlags.walletAddress,
			ChainID:       deployFlags.chainID,
			Network:       deployFlags.network,
			Script:        script,
			Value:         deployFlags.value,
			AutoVerify:    deployFlags.autoVerify,
			Env:           hardhat.ParseEnvPairs(deployFlags.env),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Enqueued deployment transaction id=%d (status=%s).", tx.ID, tx.Status)))
		fmt.Fprintln(out, ui.Meta("Sign and broadcast it, then record the receipt with: hhbridge confirm "+fmt.Sprint(tx.ID)+" --contract-address=<address>"))
		return nil
	},
}

// addTxFlags registers the wallet, chain and script flags shared by deploy and call.
func addTxFlags(cmd *cobra.Command, walletID *int64, walletAddress *string, chainID *int64, network, script, value *string, env *[]string) {
	cmd.Flags().Int64Var(walletID, "wallet-id", 0, "signer wallet id")
	cmd.Flags().StringVar(walletAddress, "wallet-address", "", "signer wallet address")
	cmd.Flags().Int64Var(chainID, "chain-id", 0, "target chain id (default from config)")
	cmd.Flags().StringVar(network, "network", "", "Hardhat network name (wins over --chain-id)")
	cmd.Flags().StringVar(script, "script", "", "Hardhat script producing the payload")
	cmd.Flags().StringVar(value, "value", "0", "value in wei")
	cmd.Flags().StringArrayVar(env, "env", nil, "environment variable KEY=VALUE for the script (repeatable)")
}

func init() {
	f := &deployFlags
	deployCmd.Flags().StringVar(&f.args, "args", "", "constructor arguments as a JSON array")
	deployCmd.Flags().BoolVar(&f.autoVerify, "auto-verify", false, "verify the contract once the deployment is confirmed")
	addTxFlags(deployCmd, &f.walletID, &f.walletAddress, &f.chainID, &f.network, &f.script, &f.value, &f.env)
}
