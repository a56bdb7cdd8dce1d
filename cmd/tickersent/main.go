package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tickersent",
		Short: "Per-ticker sentiment time series from news and social sources",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(seriesCmd())
	root.AddCommand(scoreCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func seriesCmd() *cobra.Command {
	var (
		ticker     string
		period     string
		policy     string
		rescale    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the sentiment time series for a ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeries(ticker, period, policy, rescale, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker symbol (required)")
	cmd.Flags().StringVar(&period, "period", "12w", "lookback period (e.g. 12w, 6m, 1y)")
	cmd.Flags().StringVar(&policy, "policy", "", "bucket policy: trailing, weekly, isoweek (default: from config)")
	cmd.Flags().BoolVar(&rescale, "rescale", false, "rescale scores from [-1,1] to [1,10]")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func scoreCmd() *cobra.Command {
	var (
		ticker string
		src    string
		period string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print a single average sentiment score for a ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(ticker, src, period)
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker symbol (required)")
	cmd.Flags().StringVar(&src, "source", "", "restrict to one source (news, stocktwits, reddit, rss)")
	cmd.Flags().StringVar(&period, "period", "12w", "lookback period (e.g. 12w, 6m, 1y)")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with watchlist scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
