package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sensorlocator/internal/ingest"
	"sensorlocator/internal/kml"
	"sensorlocator/internal/web"
)

func newServeCmd(load configLoader) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve <input.csv>",
		Short: "Decode a CSV export and serve the sensors on a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Web.Listen = listen
			}

			logs := web.NewLogBuffer(2000)
			logger := log.New(io.MultiWriter(os.Stderr, logs), "", log.LstdFlags)

			input := args[0]
			reload := func(ctx context.Context) (*ingest.Result, error) {
				return runPipeline(cfg, input, logger)
			}

			status := web.NewStatus()
			res, err := reload(cmd.Context())
			if err != nil {
				return err
			}
			status.SetResult(time.Now().UTC(), input, res)

			handler := web.Handler(web.Options{
				Status: status,
				Logs:   logs,
				KML:    kml.Options{DocumentName: cfg.Output.DocumentName, IconURL: cfg.Output.IconURL},
				Reload: reload,
			})
			logger.Printf("web: listening addr=%s", cfg.Web.Listen)
			err = web.Serve(cmd.Context(), cfg.Web.Listen, handler)
			if errors.Is(err, context.Canceled) {
				logger.Printf("web: stopped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides web.listen)")
	return cmd
}
