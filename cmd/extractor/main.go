// Package main provides the entry point for the group extraction HTTP API
// server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "extractor",
	Short: "Group extraction HTTP API server",
	Long:  "Runs long-lived, cancellable phone-number extraction jobs against rendered pages, streaming incremental progress over SSE and serving the accumulated CSV for download.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
