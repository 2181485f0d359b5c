package main

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"sensorlocator/internal/config"
	"sensorlocator/internal/geo"
	"sensorlocator/internal/geojson"
	"sensorlocator/internal/kml"
	"sensorlocator/internal/store"
)

func newConvertCmd(load configLoader) *cobra.Command {
	var (
		format       string
		intermediate bool
	)
	cmd := &cobra.Command{
		Use:   "convert <input.csv> <output>",
		Short: "Decode a CSV export and write the located sensors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = format
			}
			if intermediate {
				cfg.Output.Intermediate.Enable = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			input, output := args[0], args[1]
			res, err := runPipeline(cfg, input, log.Default())
			if err != nil {
				return err
			}

			if err := writeOutput(cfg, output, res.Nodes); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			log.Printf("output: written path=%s format=%s nodes=%d", output, cfg.Output.Format, len(res.Nodes))

			if cfg.Store.Enable {
				st, err := store.Open(cmd.Context(), cfg.Store.DSN)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Migrate(cmd.Context()); err != nil {
					return err
				}
				if err := st.SaveRun(cmd.Context(), res.RunID, filepath.Base(input), res.Records); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: kml or geojson (overrides output.format)")
	cmd.Flags().BoolVar(&intermediate, "intermediate", false, "Also write the decoded records to <input>.int")
	return cmd
}

func writeOutput(cfg config.Config, path string, nodes []geo.Node) error {
	switch strings.ToLower(cfg.Output.Format) {
	case config.FormatGeoJSON:
		return geojson.WriteFile(path, cfg.Output.DocumentName, nodes)
	default:
		return kml.WriteFile(path, nodes, kml.Options{
			DocumentName: cfg.Output.DocumentName,
			IconURL:      cfg.Output.IconURL,
		})
	}
}
