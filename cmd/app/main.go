package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "business-war",
		Short: "Business War - market and turn-settlement engine",
		Long: `Business War runs a turn-based economy game: sealed call auctions,
government acquisitions and end-of-turn settlement.

Examples:
  business-war simulate --config configs/config.yaml
  business-war serve
  business-war inspect data/dumps/<game-id>.json.zst`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml",
		"Path to the YAML configuration file")

	rootCmd.AddCommand(NewSimulateCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewInspectCommand())

	return rootCmd
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
