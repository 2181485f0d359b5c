package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sensorlocator/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "sensorlocator",
		Short: "Locate telemetry sensors from ground station CSV exports",
		Long: `sensorlocator decodes the hex payload column of ground station CSV
exports into typed sensor fields and writes the located sensors as KML or
GeoJSON, optionally persisting them to PostgreSQL or serving them on a map.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults apply when empty)")

	load := func() (config.Config, error) {
		if configPath == "" {
			cfg := config.Default()
			return cfg, cfg.Validate()
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("config load failed: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(newConvertCmd(load), newSummaryCmd(load), newServeCmd(load))
	return root
}

type configLoader func() (config.Config, error)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
