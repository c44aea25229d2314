package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaibhav-asynq/vibe-shopping/internal/server"
)

var (
	servePort    int
	serveConfig  string
	serveVerbose bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes session and chat endpoints for the recommendation pipeline.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "Path to JSON config file")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(serveConfig)
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	log := newLogger(serveVerbose || cfg.Verbose)

	a, err := buildAgent(context.Background(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build agent: %w", err)
	}
	defer a.Close()

	srv := server.New(server.Config{Port: cfg.Port}, a.manager, log)
	return srv.Start()
}
