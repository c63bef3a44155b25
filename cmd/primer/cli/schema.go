package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the schema snapshot",
		Long:  "List tables, describe a single table, or force a re-introspection of the database.",
	}

	cmd.AddCommand(newSchemaListCmd())
	cmd.AddCommand(newSchemaDescribeCmd())
	cmd.AddCommand(newSchemaRefreshCmd())

	return cmd
}

// ---------- schema list ----------

func newSchemaListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tables in the current snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.catalog.Current()

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap.Tables)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d, %d tables\n", snap.Version, len(snap.Tables))
			for _, t := range snap.Tables {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d columns)\n", t.Name, len(t.Columns))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- schema describe ----------

func newSchemaDescribeCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Describe one table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			table := a.catalog.Current().Table(args[0])
			if table == nil {
				return fmt.Errorf("table %q not found", args[0])
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(table)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "TABLE %s\n", table.Name)
			for _, col := range table.Columns {
				line := fmt.Sprintf("  %-24s %s", col.Name, col.Type)
				if col.PrimaryKey {
					line += "  primary key"
				}
				if !col.Nullable {
					line += "  not null"
				}
				if col.ForeignKey != nil {
					line += fmt.Sprintf("  -> %s.%s", col.ForeignKey.Table, col.ForeignKey.Column)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// ---------- schema refresh ----------

func newSchemaRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Re-introspect the database into a new snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.catalog.Refresh(cmd.Context(), a.src)
			if err != nil {
				return err
			}
			a.stats.InvalidateAll()

			fmt.Fprintf(cmd.OutOrStdout(), "schema refreshed: version %d, %d tables\n",
				snap.Version, len(snap.Tables))
			return nil
		},
	}
}
