package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/qualityfeed/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/cobra"
)

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify FILE",
		Short: "Print the status and decision of every unit in a feed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, units, err := opts.classifyFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, units)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LINE\tID\tUNIT\tSTATUS\tSTATE\tDECISION\tMISSING")
			for _, u := range units {
				status := string(u.Status)
				if !u.Complete {
					status = "-"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					u.Line, u.ID, u.Label(), status, u.Decision.State,
					u.Decision.Narrative, strings.Join(u.Decision.Incomplete, ","))
			}
			return tw.Flush()
		},
	}
}

// summaryOutput is the JSON form of the summary command.
type summaryOutput struct {
	Feed     string            `json:"feed"`
	File     string            `json:"file"`
	Filter   core.StatusFilter `json:"filter"`
	Summary  core.DaySummary   `json:"summary"`
	Averages []core.Average    `json:"averages"`
	Skipped  int               `json:"skipped"`
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary FILE",
		Short: "Print tier tallies and metric averages for a feed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, res, units, err := opts.classifyFile(args[0])
			if err != nil {
				return err
			}
			agg := engine.Aggregator
			s := summaryOutput{
				Feed:     opts.feed,
				File:     args[0],
				Filter:   core.ParseStatusFilter(opts.status),
				Summary:  agg.AggregateDay(units),
				Averages: agg.AverageAll(units),
				Skipped:  len(res.Skipped),
			}

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, s)
			}

			fmt.Fprintf(out, "units %d  tonnage %.3f  approved %d  apurado %d  rejected %d  incomplete %d  skipped %d\n\n",
				s.Summary.Count, s.Summary.Tonnage, s.Summary.Approved, s.Summary.Apurado,
				s.Summary.Rejected, s.Summary.Incomplete, s.Skipped)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METRIC\tAVERAGE\tWEIGHTED\tREADINGS")
			for _, a := range s.Averages {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.Metric.Label(), fmtFloat(a.Arithmetic), fmtFloat(a.Weighted), a.Count)
			}
			return tw.Flush()
		},
	}
}

func fmtFloat(v pgtype.Float8) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.3f", v.Float64)
}

func newAveragesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "averages FILE",
		Short: "Print the arithmetic and weight-weighted average of each metric",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, units, err := opts.classifyFile(args[0])
			if err != nil {
				return err
			}
			averages := engine.Aggregator.AverageAll(units)

			out := cmd.OutOrStdout()
			if opts.asJSON {
				return writeJSON(out, averages)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "METRIC\tAVERAGE\tWEIGHTED\tREADINGS\tWEIGHED")
			for _, a := range averages {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					a.Metric.Label(), fmtFloat(a.Arithmetic), fmtFloat(a.Weighted), a.Count, a.WeightedCount)
			}
			return tw.Flush()
		},
	}
}
