package main

import (
	"fmt"
	"os"

	"github.com/dhanavadh/eldercare-backend/internal/config"
	"github.com/dhanavadh/eldercare-backend/internal/logging"

	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "Inspect site content and exercise the form relay",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logging.Setup(c.Log)
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitemapCmd)
	rootCmd.AddCommand(formsCmd)
	rootCmd.AddCommand(submitCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
