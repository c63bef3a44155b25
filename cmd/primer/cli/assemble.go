package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/primerdb/primer/internal/model"
)

func newAssembleCmd() *cobra.Command {
	var showSections bool

	cmd := &cobra.Command{
		Use:   "assemble <question>",
		Short: "Assemble grounding context for a question",
		Long: `Assemble the context package for a natural-language question and print it
to stdout. The output is deterministic: the same question against the same
database state produces byte-identical text.`,
		Example: `  primer assemble "What was our highest growth region in Q3?"
  primer assemble --sections "total revenue by region"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(cmd, strings.Join(args, " "), showSections)
		},
	}

	cmd.Flags().BoolVar(&showSections, "sections", false, "Print the included section list to stderr")

	return cmd
}

func runAssemble(cmd *cobra.Command, question string, showSections bool) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.engine.Assemble(ctx, question, nil)
	if err != nil {
		return fmt.Errorf("assemble context: %w", err)
	}

	if showSections {
		fmt.Fprintf(cmd.ErrOrStderr(), "sections: %s\n", sectionNames(result.Included))
	}

	fmt.Fprint(cmd.OutOrStdout(), result.Text)
	return nil
}

// sectionNames renders a section list for display.
func sectionNames(ids []model.SectionID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
