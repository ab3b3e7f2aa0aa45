package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "SENTINEL - SMA trend backtester for a risk/safe asset pair",
	Long: `SENTINEL backtests a monthly 200-day SMA trend rule that holds either a
risk asset (SPY) or a safe asset (BIL), and checks how robust the result is
across neighbouring SMA windows.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
