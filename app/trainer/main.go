// Command trainer runs the offline half of the personalization pipeline:
// building labeled datasets from the purchase log and fitting the ranking
// model the API server loads.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trainer",
	Short: "Offline training pipeline for ModaMarket recommendations",
	Long: `trainer builds labeled datasets from the transaction log and fits
the gradient boosted ranking model served by the API.

Typical usage:

  trainer dataset            build train/val CSVs and run metadata
  trainer train              fit the model from the latest dataset
  trainer pipeline           dataset + train in one run`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(datasetCmd())
	rootCmd.AddCommand(trainCmd())
	rootCmd.AddCommand(pipelineCmd())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
