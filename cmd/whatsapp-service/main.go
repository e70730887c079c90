package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aaquinonez01/whatsapp-service/internal/app"
	"github.com/aaquinonez01/whatsapp-service/internal/infra/config"
	"github.com/aaquinonez01/whatsapp-service/internal/infra/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "whatsapp-service",
		Short:         "HTTP API for sending WhatsApp messages through a linked device",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	return cmd
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New("whatsapp", cfg.LogLevel)

	// Fail before anything is bound or connected.
	if err := cfg.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		return err
	}

	application, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	return application.Run()
}
