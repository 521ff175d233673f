package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/context-matcher/internal/explain"
	"github.com/jonathan/context-matcher/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that exposes /score and /top-matches. Match reasons are generated with the LLM when an API key is configured.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	port := settings.Port
	if cmd.Flags().Changed("port") {
		port = servePort
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := server.Config{
		Port:    port,
		Workers: settings.Workers,
		Logger:  logger,
	}

	if settings.APIKey != "" {
		client, err := newLLMClient(cmd.Context(), settings)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		cfg.Explainer = explain.NewExplainer(client, logger)
	} else {
		logger.Warn("no API key configured, serving without generated match reasons")
	}

	return server.New(cfg).Start()
}
