// Package main provides the entry point for the vibe shopping agent.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vibe_agent",
	Short: "Vibe shopping recommendation agent",
	Long:  "Vibe shopping agent turns free-text shopping queries into ranked product recommendations through attribute extraction, rule-enhanced matching, and LLM re-ranking.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
