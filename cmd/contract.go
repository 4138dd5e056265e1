package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/contract"
	"github.com/Mohsinsiddi/hhbridge/internal/jobs"
	"github.com/Mohsinsiddi/hhbridge/internal/store"
	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var importABIFlags struct {
	builtin  string
	artifact string
}

var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "Inspect persisted contracts",
}

var contractShowCmd = &cobra.Command{
	Use:   "show <contract-id-or-address>",
	Short: "Show a contract with its classification and verification state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		c, err := a.Web3.ResolveContract(ctx, args[0])
		if err != nil {
			return err
		}

		fns := contract.FunctionsFromJSON(c.ABI)
		pairs := [][2]string{
			{"ID", fmt.Sprint(c.ID)},
			{"Address", ui.Addr(c.Address)},
			{"Creator", c.Creator},
			{"Chain ID", fmt.Sprint(store.ContractChainID(ctx, a.Store, c))},
			{"Functions", fmt.Sprint(len(fns))},
			{"Standard", contract.Detect(fns).String()},
		}
		if tok, err := a.Store.TokenByContract(ctx, c.ID); err == nil {
			pairs = append(pairs, [2]string{"Token", fmt.Sprintf("%s (%s), %d decimals, supply %s", tok.Name, tok.Symbol, tok.Decimals, tok.TotalSupply)})
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if nft, err := a.Store.NftCollectionByContract(ctx, c.ID); err == nil {
			pairs = append(pairs, [2]string{"Collection", fmt.Sprintf("%s (%s), %s", nft.Name, nft.Symbol, nft.Standard)})
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if rec, ok := c.Meta.Verify(); ok {
			status := ui.Success(rec.Status)
			if !rec.OK() {
				status = ui.Err(rec.Status + ": " + rec.Error)
			}
			pairs = append(pairs, [2]string{"Verification", status})
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.KeyValueBlock("Contract", pairs))
		return nil
	},
}

var contractImportABICmd = &cobra.Command{
	Use:   "import-abi <contract-id-or-address>",
	Short: "Attach an ABI to a contract and classify it again",
	Long: `Attach an ABI from a Hardhat/Foundry artifact or a built-in standard
and queue the token/NFT classification job.

Examples:
  hhbridge contract import-abi 7 --artifact=artifacts/contracts/Token.sol/Token.json
  hhbridge contract import-abi 0x1234... --builtin=erc721`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		abi, err := importedABI(importABIFlags.builtin, importABIFlags.artifact)
		if err != nil {
			return err
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		c, err := a.Web3.ResolveContract(ctx, args[0])
		if err != nil {
			return err
		}
		c.ABI = abi
		if err := a.Store.UpdateContract(ctx, c); err != nil {
			return err
		}
		if err := a.Queue.Dispatch(ctx, jobs.PopulateAssetRecords{ContractID: c.ID}); err != nil {
			return err
		}
		std := contract.Detect(contract.FunctionsFromJSON(abi))
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success(fmt.Sprintf("ABI attached to contract id=%d (%s); classification queued.", c.ID, std)))
		return nil
	},
}

// importedABI loads the ABI named by exactly one of builtin or artifact.
func importedABI(builtin, artifact string) ([]byte, error) {
	switch {
	case builtin != "" && artifact != "":
		return nil, errors.New("use either --builtin or --artifact, not both")
	case builtin != "":
		b, ok := contract.GetBuiltin(strings.ToLower(builtin))
		if !ok {
			var ids []string
			for _, b := range contract.AllBuiltins() {
				ids = append(ids, b.ID)
			}
			return nil, fmt.Errorf("unknown builtin %q (available: %s)", builtin, strings.Join(ids, ", "))
		}
		return b.JSON(), nil
	case artifact != "":
		return contract.LoadFromArtifact(artifact)
	default:
		return nil, errors.New("--builtin or --artifact is required")
	}
}

func init() {
	contractImportABICmd.Flags().StringVar(&importABIFlags.builtin, "builtin", "", "built-in ABI id (erc20, erc721, erc1155)")
	contractImportABICmd.Flags().StringVar(&importABIFlags.artifact, "artifact", "", "path to an artifact JSON or raw ABI array")
	contractCmd.AddCommand(contractShowCmd, contractImportABICmd)
}
