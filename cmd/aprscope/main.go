package main

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aprScope/internal/api"
	"aprScope/internal/config"
	"aprScope/internal/dashboard"
	"aprScope/internal/health"
)

func main() {
	root := &cobra.Command{
		Use:          "aprscope",
		Short:        "Uniswap V2 pair APR dashboard",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the APR dashboard over HTTP",
		RunE:  runServe,
	}
	addClientFlags(serveCmd)
	serveCmd.Flags().Int("window", 24, "initial moving-average window in hours (1, 12, 24)")
	serveCmd.Flags().Duration("health-interval", health.DefaultInterval, "backend health poll interval")
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")

	root.AddCommand(serveCmd)

	aprCmd := &cobra.Command{
		Use:   "apr [pair]",
		Short: "Print the APR dashboard for a pair",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAPR,
	}
	addClientFlags(aprCmd)
	aprCmd.Flags().Int("window", 24, "moving-average window in hours (1, 12, 24)")

	root.AddCommand(aprCmd)

	pairCmd := &cobra.Command{
		Use:   "pair [pair]",
		Short: "Print the latest liquidity snapshot of a pair",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPair,
	}
	addClientFlags(pairCmd)
	pairCmd.Flags().String("rpc-url", "", "Ethereum RPC URL; when set, pair tokens and reserves are also read on-chain")
	pairCmd.Flags().Uint64("chain-id", 1, "expected chain ID of --rpc-url, 0 skips the check")

	root.AddCommand(pairCmd)

	historyCmd := &cobra.Command{
		Use:   "history [pair]",
		Short: "Print historical snapshots of a pair",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	addClientFlags(historyCmd)
	historyCmd.Flags().String("start-date", "", "first date (YYYY-MM-DD)")
	historyCmd.Flags().String("end-date", "", "last date (YYYY-MM-DD)")
	historyCmd.Flags().Int("limit", 0, "maximum number of snapshots, 0 means backend default")

	root.AddCommand(historyCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check backend health",
		RunE:  runHealth,
	}
	addClientFlags(healthCmd)

	root.AddCommand(healthCmd)

	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive APR series to JSONL and/or Postgres",
		RunE:  runArchive,
	}
	archiveCmd.Flags().String("backend-url", api.DefaultBaseURL, "backend base URL")
	archiveCmd.Flags().Duration("timeout", api.DefaultTimeout, "backend request timeout")
	archiveCmd.Flags().StringSlice("pairs", nil, "pairs as address=name (comma-separated)")
	archiveCmd.Flags().StringSlice("windows", []string{"1", "12", "24"}, "windows to archive (comma-separated)")
	archiveCmd.Flags().String("out", "", "output JSONL path")
	archiveCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	archiveCmd.Flags().Int("batch-size", 500, "records per sink write")
	archiveCmd.Flags().String("state-file", "", "local state file; defaults to Postgres state when --pg-dsn is set")
	archiveCmd.Flags().String("since", "", "skip points at or before this time (unix seconds or RFC3339)")
	archiveCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	archiveCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	archiveCmd.Flags().String("metrics-file", "", "write run metrics in Prometheus text format to this path")
	archiveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	archiveCmd.Flags().String("log-file", "", "also write logs to this rotating file")

	root.AddCommand(archiveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend-url", api.DefaultBaseURL, "backend base URL")
	cmd.Flags().Duration("timeout", api.DefaultTimeout, "backend request timeout")
	cmd.Flags().StringSlice("pairs", nil, "selectable pairs as address=name (comma-separated)")
	cmd.Flags().String("timezone", "", "IANA zone for displayed timestamps, empty means local")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "also write logs to this rotating file")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}

func pairOptions(pairs []config.Pair) []dashboard.PairOption {
	if len(pairs) == 0 {
		return dashboard.DefaultPairs
	}
	out := make([]dashboard.PairOption, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, dashboard.PairOption{Address: p.Address, Name: p.Name})
	}
	return out
}

var errEmptyPair = errors.New("pair address is required")

// pairArg resolves the optional positional pair: a configured name or address, or the first configured pair.
// A blank argument is rejected since queries never fetch an empty address.
func pairArg(pairs []dashboard.PairOption, args []string) (dashboard.PairOption, error) {
	if len(args) == 0 {
		if len(pairs) == 0 {
			return dashboard.PairOption{}, errEmptyPair
		}
		return pairs[0], nil
	}
	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return dashboard.PairOption{}, errEmptyPair
	}
	for _, p := range pairs {
		if strings.EqualFold(p.Name, arg) || strings.EqualFold(p.Address, arg) {
			return p, nil
		}
	}
	return dashboard.PairOption{Address: arg, Name: arg}, nil
}
