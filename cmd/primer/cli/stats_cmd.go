package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats <table> [column]",
		Short: "Profile a table's columns",
		Long: `Compute per-column statistics (row count, distinct count, null count,
min/max) for a table, or for a single column when one is named. Results are
cached against the current schema snapshot.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, args []string, jsonOutput bool) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.catalog.Current()
	table := snap.Table(args[0])
	if table == nil {
		return fmt.Errorf("table %q not found", args[0])
	}

	columns := table.Columns
	if len(args) == 2 {
		col := table.Column(args[1])
		if col == nil {
			return fmt.Errorf("column %q not found in table %q", args[1], args[0])
		}
		columns = columns[:0:0]
		columns = append(columns, *col)
	}

	for _, col := range columns {
		stat, err := a.stats.Compute(ctx, table.Name, col.Name, col.Type, snap.Version)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s.%s: %v\n", table.Name, col.Name, err)
			continue
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(stat); err != nil {
				return err
			}
			continue
		}

		line := fmt.Sprintf("%s.%s: rows=%d distinct=%d nulls=%d",
			stat.Table, stat.Column, stat.RowCount, stat.DistinctCount, stat.NullCount())
		if stat.Min != nil && stat.Max != nil {
			line += fmt.Sprintf(" range=[%s .. %s]", *stat.Min, *stat.Max)
		}
		if stat.Approximate {
			line += " (approximate)"
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
