// Package cmd implements the CLI commands for card-price-tracker.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/card-price-tracker/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "card-price-tracker",
	Short: "Estimate sale prices for sports trading cards",
	Long: "An API-first service that searches marketplace listings for a trading card,\n" +
		"filters and ranks them against the requested attributes, and estimates a\n" +
		"realistic sale range from the asking prices.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(lookupCommand())
	rootCmd.AddCommand(parseCommand())
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file. A missing file at the default path falls
// back to defaults so the binary runs out of the box; an explicit path must
// exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		fmt.Fprintf(os.Stderr, "config file %s not found, using defaults\n", cfgFile)
		return config.Default(), nil
	}
	return nil, fmt.Errorf("loading config: %w", err)
}
