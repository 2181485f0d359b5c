package main

import (
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/spf13/cobra"

	"sensorlocator/internal/ingest"
)

type runSummary struct {
	Lines       int
	Filtered    int
	Accepted    int
	Skipped     int
	Unlocated   int
	Nodes       int
	Sensors     int
	FieldCounts map[string]int
	SkipReasons map[string]int
}

func summarizeRun(res *ingest.Result) runSummary {
	s := runSummary{
		Lines:       res.Lines,
		Filtered:    res.Filtered,
		Accepted:    res.Accepted,
		Skipped:     res.Skipped,
		Unlocated:   res.Unlocated,
		Nodes:       len(res.Nodes),
		FieldCounts: map[string]int{},
		SkipReasons: map[string]int{},
	}
	sensors := map[int64]struct{}{}
	for _, rec := range res.Records {
		sensors[rec.SensorID] = struct{}{}
		for _, f := range rec.Fields {
			s.FieldCounts[string(f.Code)]++
		}
	}
	s.Sensors = len(sensors)
	for _, sk := range res.Skips {
		s.SkipReasons[sk.Stage+"/"+sk.Reason]++
	}
	return s
}

func printRunSummary(w io.Writer, path string, s runSummary) {
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "lines: %d\n", s.Lines)
	fmt.Fprintf(w, "filtered: %d\n", s.Filtered)
	fmt.Fprintf(w, "accepted: %d\n", s.Accepted)
	fmt.Fprintf(w, "skipped: %d\n", s.Skipped)
	fmt.Fprintf(w, "unlocated: %d\n", s.Unlocated)
	fmt.Fprintf(w, "nodes: %d\n", s.Nodes)
	fmt.Fprintf(w, "sensors: %d\n", s.Sensors)
	printCounts(w, "field_counts", s.FieldCounts)
	printCounts(w, "skip_reasons", s.SkipReasons)
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

func newSummaryCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <input.csv>",
		Short: "Print decode counters for a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			res, err := runPipeline(cfg, args[0], log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
			if err != nil {
				return err
			}
			printRunSummary(cmd.OutOrStdout(), args[0], summarizeRun(res))
			return nil
		},
	}
}
