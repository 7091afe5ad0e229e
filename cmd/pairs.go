package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Synternet/terraswap-core/internal/asset"
)

var pairsCmd = &cobra.Command{
	Use:   "pairs [ASSET]",
	Short: "List the discovered pairs, optionally only those trading ASSET",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		svc, _, stop := bootstrap()
		defer stop()
		defer svc.Close()

		net := svc.CurrentNetwork()
		if len(args) == 0 {
			printJSON(svc.Directory().Pairs(net))
			return
		}
		printJSON(svc.Directory().PairsByAsset(net, asset.Normalize(args[0])))
	},
}

func init() {
	rootCmd.AddCommand(pairsCmd)
}
