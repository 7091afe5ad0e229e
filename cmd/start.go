package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/Synternet/terraswap-core/cmd/flags"
	"github.com/Synternet/terraswap-core/internal/terraswap"
)

var (
	flagPublisherName   *string
	flagMetricsURL      *string
	flagAssets          *flags.Addresses
	flagTrackPairAssets *bool
	flagSyncPeriod      *time.Duration
	flagProbePeriod     *time.Duration
	flagRateLimit       *float64
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Discover pairs, keep assets fresh and publish new pairs",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		svc := newService(
			ctx,
			terraswap.WithLogger(slog.Default()),
			terraswap.WithName(*flagPublisherName),
			terraswap.WithMetricsURL(*flagMetricsURL),
			terraswap.WithTelemetryPeriod(*flagTelemetryPeriod),
			terraswap.WithSyncPeriod(*flagSyncPeriod),
			terraswap.WithProbePeriod(*flagProbePeriod),
			terraswap.WithRateLimit(rate.Limit(*flagRateLimit)),
			terraswap.WithAssets(*flagAssets.Value),
			terraswap.WithTrackPairAssets(*flagTrackPairAssets),
		)

		svcCtx := svc.Start()
		defer svc.Close()

		select {
		case <-ctx.Done():
			slog.Info("Shutdown")
		case <-svcCtx.Done():
			slog.Info("Service stopped", "cause", context.Cause(svcCtx))
			stop()
		}
	},
}

func init() {
	rootCmd.AddCommand(startCmd)

	const (
		PUBLISHER_NAME    = "PUBLISHER_NAME"
		METRICS_URL       = "METRICS_URL"
		ASSETS            = "ASSETS"
		TRACK_PAIR_ASSETS = "TRACK_PAIR_ASSETS"
		SYNC_PERIOD       = "SYNC_PERIOD"
		PROBE_PERIOD      = "PROBE_PERIOD"
		RATE_LIMIT        = "RATE_LIMIT"
	)

	setDefault(PUBLISHER_NAME, terraswap.DefaultName)
	setDefault(ASSETS, "uluna")
	setDefault(RATE_LIMIT, "20")

	f := startCmd.Flags()
	flagPublisherName = f.String("publisher-name", os.Getenv(PUBLISHER_NAME), "NATS publisher name as in {prefix}.{name}.>")
	flagMetricsURL = f.String("metrics-url", os.Getenv(METRICS_URL), "Address to serve prometheus /metrics on, e.g. :2112")
	flagAssets = f.VarPF(flags.NewAddresses(os.Getenv(ASSETS)), "assets", "", "Asset addresses to keep fresh (separated by comma)").Value.(*flags.Addresses)
	_, trackPresent := os.LookupEnv(TRACK_PAIR_ASSETS)
	flagTrackPairAssets = f.Bool("track-pair-assets", trackPresent, "Keep every asset of discovered pairs fresh")

	syncPeriod, err := time.ParseDuration(os.Getenv(SYNC_PERIOD))
	if err != nil {
		syncPeriod = terraswap.DefaultSyncPeriod
	}
	flagSyncPeriod = f.Duration("sync-period", syncPeriod, "Period between pair directory syncs")

	probePeriod, err := time.ParseDuration(os.Getenv(PROBE_PERIOD))
	if err != nil {
		probePeriod = terraswap.DefaultProbePeriod
	}
	flagProbePeriod = f.Duration("probe-period", probePeriod, "Period between connectivity probes")

	limit, err := strconv.ParseFloat(os.Getenv(RATE_LIMIT), 64)
	if err != nil {
		limit = float64(terraswap.DefaultRateLimit)
		slog.Warn("Bad rate limit format, switching to default", "error", err, "limit", limit)
	}
	flagRateLimit = f.Float64("rate-limit", limit, "Chain queries per second per network")
}
