package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rateio/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "rateio",
	Short: "rateio CLI - extraction and reporting for utility invoice batches",
	Long: `rateio CLI extracts billing data from electricity-invoice PDFs and
produces the structured records behind shared-generation (rateio) reports.

Invoices are parsed with ordered fallback pattern chains, reconciled against
their own line items, assigned to a monthly report cycle and joined against
the customer roster. See the extract, batch and cycle subcommands.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("rateio CLI executed")

		fmt.Println("Welcome to the rateio CLI!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
