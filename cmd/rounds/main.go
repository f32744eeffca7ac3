package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config string
}

var rootCmd = &cobra.Command{
	Use:   "rounds",
	Short: "Turn-at-a-time clinical reasoning engine",
	Long: "Rounds advances a diagnostic case one turn at a time: an orchestrator\n" +
		"decides what changed, grants scoped authority to the evidence and\n" +
		"diagnosis auditors, and the merged result is committed atomically.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.config, "config", "config.toml", "Path to the base config file")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(turnCmd)
	rootCmd.AddCommand(evidenceCmd)
	rootCmd.AddCommand(diagnosisCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
