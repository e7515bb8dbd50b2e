package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "StarkNet options protocol state indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("network", "mainnet", "network (mainnet, testnet)")
	root.PersistentFlags().String("rpc", "", "StarkNet JSON-RPC URL")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN")
	root.PersistentFlags().Bool("dry-run", false, "keep everything in memory instead of Postgres")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	root.PersistentFlags().String("amm-address", "", "override the AMM contract address")
	root.PersistentFlags().String("call-pool", "", "override the call pool address")
	root.PersistentFlags().String("put-pool", "", "override the put pool address")
	root.PersistentFlags().String("oracle-address", "", "override the Pragma oracle address")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync pool states, volatilities and oracle prices block by block",
		RunE:  runSync,
	}
	syncCmd.Flags().Uint64("from", 0, "first block when the store is empty")
	syncCmd.Flags().Uint64("step", 1, "block step")
	syncCmd.Flags().Duration("retry-backoff", 10*time.Second, "wait between attempts of a failing block")
	syncCmd.Flags().Duration("interval", time.Minute, "wait between sync passes")
	syncCmd.Flags().Bool("once", false, "run a single pass and exit")
	syncCmd.Flags().String("oracle-pair", "ETH/USD", "oracle pair tracked at every block")
	root.AddCommand(syncCmd)

	gapfillCmd := &cobra.Command{
		Use:   "gapfill",
		Short: "Sync an explicit list of blocks (e.g. 120,130-135)",
		RunE:  runGapfill,
	}
	gapfillCmd.Flags().StringSlice("blocks", nil, "blocks and ranges to fill (comma-separated)")
	gapfillCmd.Flags().String("gap-state", "./data/gaps.json", "gap-fill progress file, empty disables it")
	gapfillCmd.Flags().Duration("retry-backoff", 10*time.Second, "wait between attempts of a failing block")
	gapfillCmd.Flags().String("oracle-pair", "ETH/USD", "oracle pair tracked at every block")
	root.AddCommand(gapfillCmd)

	discoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover options of the liquidity pools and store them",
		RunE:  runDiscover,
	}
	discoverCmd.Flags().Duration("discover-delay", 2*time.Second, "delay between option address lookups")
	discoverCmd.Flags().StringSlice("pool", nil, "pools to discover (default: call and put pool)")
	discoverCmd.Flags().StringSlice("option", nil, "only resolve these option token addresses")
	root.AddCommand(discoverCmd)

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "Pull new protocol events from Starkscan",
		RunE:  runEvents,
	}
	addEventFlags(eventsCmd)
	root.AddCommand(eventsCmd)

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Keep the merge cache fresh and publish snapshots",
		RunE:  runCache,
	}
	addCacheFlags(cacheCmd)
	root.AddCommand(cacheCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Refresh the cache once and write the trade history",
		RunE:  runExport,
	}
	addCacheFlags(exportCmd)
	root.AddCommand(exportCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().String("starkscan-url", "", "Starkscan API base URL (default: per network)")
	cmd.Flags().String("starkscan-api-key", "", "Starkscan API key")
	cmd.Flags().StringSlice("protocol", nil, "tracked protocols as name=address (default: the AMM)")
	cmd.Flags().Duration("protocol-delay", 2*time.Second, "delay between protocols")
	cmd.Flags().Int("max-pages", 0, "page limit per walk, 0 means no limit")
	cmd.Flags().String("events-state", "./data/starkscan-cursors.json", "where links of pages not yet reached are kept")
}

func addCacheFlags(cmd *cobra.Command) {
	addEventFlags(cmd)
	cmd.Flags().Duration("discover-delay", 2*time.Second, "delay between option address lookups")
	cmd.Flags().String("schedule", "0 */5 * * * *", "cron spec (with seconds) of cache refreshes")
	cmd.Flags().String("discover-schedule", "0 0 * * * *", "cron spec of roster discovery, empty disables it")
	cmd.Flags().String("redis-url", "", "publish snapshots to this redis URL")
	cmd.Flags().Duration("snapshot-ttl", 0, "snapshot expiry in redis, 0 keeps it forever")
	cmd.Flags().String("out", "", "write trade history JSONL to this path")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
