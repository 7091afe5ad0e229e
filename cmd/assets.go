package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Synternet/terraswap-core/internal/asset"
)

var flagAllPairAssets *bool

var assetsCmd = &cobra.Command{
	Use:   "assets [ASSET...]",
	Short: "Refresh and print cached asset metadata and wallet balances",
	Run: func(cmd *cobra.Command, args []string) {
		svc, ctx, stop := bootstrap()
		defer stop()
		defer svc.Close()

		net := svc.CurrentNetwork()
		cache := svc.Cache()
		for _, a := range args {
			cache.GetOrQueue(net, asset.Normalize(a))
		}
		if *flagAllPairAssets {
			for _, ref := range svc.Directory().AssetAddresses(net) {
				cache.GetOrQueue(net, ref.Address)
			}
		}

		if err := cache.WaitIdle(ctx, net); err != nil {
			slog.Warn("Asset refresh interrupted", "err", err)
		}
		printJSON(cache.Assets(net))
	},
}

func init() {
	rootCmd.AddCommand(assetsCmd)

	flagAllPairAssets = assetsCmd.Flags().Bool("all", false, "Include every asset of the discovered pairs")
}
