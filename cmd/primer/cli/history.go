package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/primerdb/primer/internal/model"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and update query memory",
		Long: `Show the bounded query history, record the outcome of an executed SQL
attempt, or clear the stores. Recording failed attempts also feeds the
error store that future assemblies warn from.`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryRecordCmd())
	cmd.AddCommand(newHistoryClearCmd())

	return cmd
}

// ---------- history list ----------

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show recorded queries and errors",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.history.Recent(a.history.Capacity())
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recorded queries")
			}
			for _, e := range entries {
				status := "ok"
				if !e.Succeeded {
					status = "failed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s  Q: %s\n       SQL: %s\n",
					status, e.Timestamp.Format("2006-01-02 15:04:05"), e.Question, e.SQL)
			}

			errEntries := a.errors.Recent(a.errors.Capacity())
			if len(errEntries) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "\nrecorded errors:")
				for _, e := range errEntries {
					fmt.Fprintf(cmd.OutOrStdout(), "  SQL: %s\n  Error: %s\n", e.SQL, e.Message)
					if e.Hint != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "  Hint: %s\n", e.Hint)
					}
				}
			}
			return nil
		},
	}
}

// ---------- history record ----------

func newHistoryRecordCmd() *cobra.Command {
	var (
		question     string
		sqlText      string
		failed       bool
		errorMessage string
		hint         string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the outcome of an executed SQL attempt",
		Example: `  primer history record --question "total revenue" --sql "SELECT SUM(amount) FROM orders"
  primer history record --question "..." --sql "..." --failed --error "no such column: amout"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if question == "" || sqlText == "" {
				return fmt.Errorf("--question and --sql are required")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			entry := model.NewHistoryEntry(question, sqlText, !failed)
			a.history.Append(entry)

			if failed {
				message := errorMessage
				if message == "" {
					message = "execution failed"
				}
				a.errors.Append(model.NewErrorEntry(sqlText, message, hint))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "recorded %s\n", entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&question, "question", "", "The natural-language question")
	cmd.Flags().StringVar(&sqlText, "sql", "", "The SQL that was executed")
	cmd.Flags().BoolVar(&failed, "failed", false, "Mark the attempt as failed")
	cmd.Flags().StringVar(&errorMessage, "error", "", "Database error message (with --failed)")
	cmd.Flags().StringVar(&hint, "hint", "", "Corrective hint for future attempts")

	return cmd
}

// ---------- history clear ----------

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the history and error stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.history.Clear()
			a.errors.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "memory cleared")
			return nil
		},
	}
}
