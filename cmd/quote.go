package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	sdkmath "cosmossdk.io/math"
	"github.com/spf13/cobra"

	"github.com/Synternet/terraswap-core/internal/asset"
	"github.com/Synternet/terraswap-core/internal/quote"
	"github.com/Synternet/terraswap-core/internal/terraswap"
	"github.com/Synternet/terraswap-core/pkg/decimalmath"
)

// LP tokens minted by the pair contract always have 6 decimals.
const lpDecimals = 6

var (
	flagReverse   *bool
	flagBaseUnits *bool
	flagPrecision *int32
	flagDecimals  *int32
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote swaps and liquidity changes against the live pools",
}

var quoteSwapCmd = &cobra.Command{
	Use:   "swap OFFER_ASSET ASK_ASSET AMOUNT",
	Short: "Simulate a swap; with --reverse AMOUNT is the ask amount",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, ctx, stop := bootstrap()
		defer stop()
		defer svc.Close()

		net := svc.CurrentNetwork()
		offer, ask := asset.Normalize(args[0]), asset.Normalize(args[1])
		pair, found := svc.Directory().FindPair(net, offer, ask)
		offerDecimals := decimalsOf(pair, found, offer, *flagDecimals)
		askDecimals := decimalsOf(pair, found, ask, *flagDecimals)

		inputDecimals, estimatedDecimals := offerDecimals, askDecimals
		if *flagReverse {
			inputDecimals, estimatedDecimals = askDecimals, offerDecimals
		}
		amount, err := baseAmount(args[2], inputDecimals)
		if err != nil {
			return err
		}

		q, err := svc.Swaps().Quote(ctx, quote.SwapRequest{
			Network:    net,
			OfferAsset: offer,
			AskAsset:   ask,
			Amount:     amount,
			Reverse:    *flagReverse,
		})
		if err != nil {
			return err
		}

		printJSON(map[string]any{
			"network":     net,
			"pair":        q.Pair.ContractAddress,
			"offer_asset": offer,
			"ask_asset":   ask,
			"reverse":     q.Reverse,
			"amount":      amounts(q.Amount, inputDecimals),
			"estimated":   amounts(q.EstimatedAmount, estimatedDecimals),
			"commission":  amounts(q.CommissionAmount, askDecimals),
			"spread":      amounts(q.SpreadAmount, askDecimals),
		})
		return nil
	},
}

var quoteProvideCmd = &cobra.Command{
	Use:   "provide ASSET1 ASSET2 AMOUNT1 [AMOUNT2]",
	Short: "Quote the share minted for a provision; AMOUNT2 is balanced from AMOUNT1 when omitted",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, ctx, stop := bootstrap()
		defer stop()
		defer svc.Close()

		net := svc.CurrentNetwork()
		asset1, asset2 := asset.Normalize(args[0]), asset.Normalize(args[1])
		pair, found := svc.Directory().FindPair(net, asset1, asset2)
		decimals1 := decimalsOf(pair, found, asset1, *flagDecimals)
		decimals2 := decimalsOf(pair, found, asset2, *flagDecimals)

		amount1, err := baseAmount(args[2], decimals1)
		if err != nil {
			return err
		}
		amount2 := ""
		if len(args) == 4 {
			if amount2, err = baseAmount(args[3], decimals2); err != nil {
				return err
			}
		}

		q, err := svc.Liquidity().QuoteProvide(ctx, net, asset1, asset2, amount1, amount2)
		if err != nil {
			return err
		}

		out := map[string]any{
			"network":             net,
			"pair":                pair.ContractAddress,
			"asset1":              asset1,
			"asset2":              asset2,
			"amount1":             amounts(q.Amount1, decimals1),
			"amount2":             amounts(q.Amount2, decimals2),
			"share":               amounts(q.Share, lpDecimals),
			"percentage_of_share": q.PercentageOfShare.StringFixed(2),
			"no_existing_pool":    q.NoExistingPool,
			"balanced":            q.Balanced,
		}
		if q.Balanced && amount2 != "" {
			slog.Warn("AMOUNT2 replaced by the amount balanced to the pool ratio", "amount2", args[3], "balanced", q.Amount2.String())
		}
		if q.NoExistingPool {
			received := q.Share.SubRaw(quote.LockedLPSupply)
			if received.IsNegative() {
				received = sdkmath.ZeroInt()
			}
			out["share_received"] = amounts(received, lpDecimals)
		}
		printJSON(out)
		return nil
	},
}

var quoteWithdrawCmd = &cobra.Command{
	Use:   "withdraw ASSET1 ASSET2 LP_AMOUNT",
	Short: "Quote the assets returned for burning LP tokens",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, ctx, stop := bootstrap()
		defer stop()
		defer svc.Close()

		net := svc.CurrentNetwork()
		asset1, asset2 := asset.Normalize(args[0]), asset.Normalize(args[1])
		pair, found := svc.Directory().FindPair(net, asset1, asset2)
		decimals1 := decimalsOf(pair, found, asset1, *flagDecimals)
		decimals2 := decimalsOf(pair, found, asset2, *flagDecimals)

		lp, err := baseAmount(args[2], lpDecimals)
		if err != nil {
			return err
		}

		q, err := svc.Liquidity().QuoteWithdraw(ctx, net, asset1, asset2, lp)
		if err != nil {
			return err
		}

		printJSON(map[string]any{
			"network":   net,
			"pair":      pair.ContractAddress,
			"lp_amount": amounts(q.LPAmount, lpDecimals),
			"asset1":    asset1,
			"amount1":   amounts(q.Amount1, decimals1),
			"asset2":    asset2,
			"amount2":   amounts(q.Amount2, decimals2),
		})
		return nil
	},
}

// bootstrap creates a service for one-shot commands and syncs the active network.
func bootstrap() (*terraswap.Service, context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	svc := newService(ctx, terraswap.WithRegisterer(nil))
	svc.Bootstrap(ctx)
	return svc, ctx, stop
}

func baseAmount(value string, decimals int32) (string, error) {
	if *flagBaseUnits {
		return value, nil
	}
	return decimalmath.ToBaseUnits(value, decimals)
}

type amountOutput struct {
	Base    string `json:"base"`
	Display string `json:"display"`
}

func amounts(v sdkmath.Int, decimals int32) amountOutput {
	if v.IsNil() {
		return amountOutput{}
	}
	display, err := decimalmath.FormatUnits(v.String(), decimals, *flagPrecision)
	if err != nil {
		display = ""
	}
	return amountOutput{Base: v.String(), Display: display}
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.AddCommand(quoteSwapCmd, quoteProvideCmd, quoteWithdrawCmd)

	pf := quoteCmd.PersistentFlags()
	flagBaseUnits = pf.Bool("base", false, "Amounts are given in base units")
	flagPrecision = pf.Int32("precision", 6, "Fractional digits of display amounts")
	flagDecimals = pf.Int32("decimals", 6, "Decimals assumed for assets of pairs not yet discovered")

	flagReverse = quoteSwapCmd.Flags().Bool("reverse", false, "AMOUNT is the amount to receive")
}
