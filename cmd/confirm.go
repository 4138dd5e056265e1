package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/app"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var confirmFlags struct {
	contractAddress string
	hash            string
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <tx-id>",
	Short: "Record the receipt of a mined transaction",
	Long: `Mark a pending transaction confirmed and publish transaction.confirmed.

For a deployment, pass the deployed address: the contract row is created and
the classification and auto-verify jobs are queued.

Examples:
  hhbridge confirm 12 --contract-address=0xbeef... --hash=0xabc...
  hhbridge confirm 13 --hash=0xdef...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid transaction id %q", args[0])
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		tx, err := a.Confirm(cmd.Context(), app.ConfirmRequest{
			TransactionID:   id,
			ContractAddress: confirmFlags.contractAddress,
			Hash:            confirmFlags.hash,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Transaction id=%d confirmed.", tx.ID)))
		if addr := tx.Meta.ReceiptContractAddress(); addr != "" && tx.IsContractCreation() {
			c, err := a.Store.ContractByAddress(cmd.Context(), addr)
			if err == nil {
				fmt.Fprintln(out, ui.Success(fmt.Sprintf("Contract id=%d persisted at %s.", c.ID, ui.Addr(c.Address))))
			}
		}
		return nil
	},
}

func init() {
	confirmCmd.Flags().StringVar(&confirmFlags.contractAddress, "contract-address", "", "address assigned to a deployed contract")
	confirmCmd.Flags().StringVar(&confirmFlags.hash, "hash", "", "transaction hash")
}
