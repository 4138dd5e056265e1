package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/store"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var walletFlags struct {
	name     string
	protocol string
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage signer wallets known to the transaction pipeline",
}

var walletAddCmd = &cobra.Command{
	Use:   "add <address>",
	Short: "Register a signer wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]
		protocol := walletFlags.protocol
		if protocol == "evm" {
			if !common.IsHexAddress(address) {
				return fmt.Errorf("invalid EVM address %q", address)
			}
			address = common.HexToAddress(address).Hex()
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		w := &store.Wallet{Address: address, Protocol: protocol, Name: walletFlags.name}
		if err := a.Store.CreateWallet(cmd.Context(), w); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("Wallet id=%d added: %s", w.ID, ui.Addr(w.Address))))
		fmt.Fprintln(out, ui.Hint(fmt.Sprintf("Deploy with it: hhbridge deploy <artifact> --wallet-id=%d", w.ID)))
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signer wallets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		wallets, err := a.Store.Wallets(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(wallets) == 0 {
			fmt.Fprintln(out, ui.Info("No wallets registered yet."))
			fmt.Fprintln(out, ui.Hint("Add one with: hhbridge wallet add 0xYourAddress --name=deployer"))
			return nil
		}
		t := ui.NewTable([]ui.Column{
			{Title: "ID", Width: 6},
			{Title: "Name", Width: 16},
			{Title: "Address", Width: 44},
			{Title: "Protocol", Width: 10},
		})
		for _, w := range wallets {
			t.AddRow(ui.Row{fmt.Sprint(w.ID), w.Name, w.Address, w.Protocol})
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

func init() {
	walletAddCmd.Flags().StringVar(&walletFlags.name, "name", "", "display name")
	walletAddCmd.Flags().StringVar(&walletFlags.protocol, "protocol", "evm", "wallet protocol")
	walletCmd.AddCommand(walletAddCmd, walletListCmd)
}
