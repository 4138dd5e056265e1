package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/chain"
	"github.com/Mohsinsiddi/hhbridge/internal/rpc"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "List and sync supported networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in chain adapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := cfg.RPCOverrideMap()
		if err != nil {
			return err
		}
		reg := chain.NewDefaultRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "Name", Width: 14},
			{Title: "Network", Width: 12},
			{Title: "Chain ID", Width: 10},
			{Title: "RPC", Width: 36},
		})
		for _, a := range reg.All() {
			rpc := a.DefaultRPC()
			if url := overrides[a.ChainID()]; url != "" {
				rpc = url + " *"
			}
			t.AddRow(ui.Row{a.Name(), a.Network(), fmt.Sprint(a.ChainID()), rpc})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.Render())
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("%d networks total (* = rpc_overrides)", len(reg.All()))))
		return nil
	},
}

var networkSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upsert a blockchain row for every built-in network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		rows, err := a.SyncNetworks(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, b := range rows {
			fmt.Fprintf(out, "%s %s %s\n", ui.Success(b.Name), ui.Network(b.Network), ui.Meta(fmt.Sprintf("chain id %d, row %d", b.ChainID, b.ID)))
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("%d networks synced.", len(rows))))
		return nil
	},
}

var networkCheckCmd = &cobra.Command{
	Use:   "check [network...]",
	Short: "Ping the RPC endpoint of each network",
	Long: `Check asks every network's RPC (the rpc_overrides URL, marked with *,
else the built-in default) for its latest block and reports latency. With
--defaults the built-in endpoint of an overridden network is checked too, and
an endpoint more than 3 blocks behind the other one of the same chain is
stale. Pass network names to limit the check.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides, err := cfg.RPCOverrideMap()
		if err != nil {
			return err
		}
		reg := chain.NewDefaultRegistry()
		var adapters []chain.Adapter
		if len(args) == 0 {
			adapters = reg.All()
		}
		for _, name := range args {
			a, ok := reg.ForNetwork(name)
			if !ok {
				return fmt.Errorf("%w: %s", chain.ErrChainNotFound, name)
			}
			adapters = append(adapters, a)
		}

		var targets []rpc.Target
		var labels []string
		for _, a := range adapters {
			url := overrides[a.ChainID()]
			if url != "" {
				targets = append(targets, rpc.Target{ChainID: a.ChainID(), URL: url})
				labels = append(labels, a.Network()+" *")
			}
			if a.DefaultRPC() != "" && (url == "" || checkDefaults) {
				targets = append(targets, rpc.Target{ChainID: a.ChainID(), URL: a.DefaultRPC()})
				labels = append(labels, a.Network())
			}
		}
		if len(targets) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warn("No RPC endpoints to check."))
			return nil
		}

		sp := ui.NewSpinnerTo(cmd.ErrOrStderr(), fmt.Sprintf("Pinging %d endpoints...", len(targets)))
		sp.Start()
		results := rpc.CheckAll(cmd.Context(), targets)
		sp.Stop()

		t := ui.NewTable([]ui.Column{
			{Title: "Network", Width: 12},
			{Title: "Block", Width: 12},
			{Title: "Latency", Width: 10},
			{Title: "Status", Width: 10},
			{Title: "RPC", Width: 36},
		})
		healthy := 0
		for i, ep := range results {
			status, block, latency := "down", "-", "-"
			if ep.Err == nil {
				block = fmt.Sprint(ep.BlockNumber)
				latency = ep.Latency.Round(time.Millisecond).String()
				status = "stale"
			}
			if ep.Healthy {
				status = "ok"
				healthy++
			}
			t.AddRow(ui.Row{labels[i], block, latency, status, ep.URL})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, t.Render())
		if healthy < len(results) {
			fmt.Fprintln(out, ui.Warn(fmt.Sprintf("%d of %d endpoints healthy.", healthy, len(results))))
			return nil
		}
		fmt.Fprintln(out, ui.Success(fmt.Sprintf("All %d endpoints healthy.", len(results))))
		return nil
	},
}

var checkDefaults bool

func init() {
	networkCheckCmd.Flags().BoolVar(&checkDefaults, "defaults", false, "also check the built-in RPC of overridden networks")
	networkCmd.AddCommand(networkListCmd, networkSyncCmd, networkCheckCmd)
}
