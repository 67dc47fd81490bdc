// Package main provides the Shelf Search CLI.
// It answers natural-language questions about a bookstore inventory and
// manages the underlying vector index.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shelf-search",
		Short: "Shelf Search - Natural-language bookstore inventory assistant",
		Long: `Shelf Search answers free-text questions about a bookstore inventory:
search, recommendations, price filters, store comparisons, and catalog
analytics, grounded in a Qdrant vector index.

Run 'shelf-search index --file books.json' to load an inventory.
Run 'shelf-search query "cheap sci-fi books"' to ask a question.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		queryCmd(),
		indexCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shelf-search %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
