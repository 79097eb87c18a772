// Package cmd - marketctl CLI commands
package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "marketctl",
	Short: "Catalyst Markets - operational CLI",
	Long: `Catalyst Markets - operational CLI

Commands:
    fetch-prices  <symbols...>  - resolve quotes once and print them
    advise-ipos                 - recompute advisor verdicts for all IPOs
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(fetchPricesCmd)
	rootCmd.AddCommand(adviseIPOsCmd)
}

// initConfig loads the .env file and environment variables
func initConfig() error {
	if err := godotenv.Load(); err != nil {
		// Fine to run on environment variables alone
		if verbose {
			fmt.Println("Warning: .env file not found, using environment variables")
		}
	}

	return nil
}
