package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

var queryReset bool

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the query built by the panel",
	Long: `Prints the domain, context, group-bys, order and time ranges built from the
active filters of the current view.

Use --reset to drop the saved panel state and start from the view defaults.`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Print the active filters as facets",
	Args:  cobra.NoArgs,
	RunE:  runFacets,
}

func init() {
	queryCmd.Flags().BoolVar(&queryReset, "reset", false, "reset the panel to the view defaults first")
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(facetsCmd)
}

func runQuery(cmd *cobra.Command, _ []string) error {
	if _, err := openPanel(cmd); err != nil {
		return err
	}
	if queryReset {
		if err := panelService.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
	}
	return printQuery(cmd)
}

func printQuery(cmd *cobra.Command) error {
	q, err := panelService.Query()
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return render(cmd, q, func() { outputQueryTable(cmd, q) })
}

func outputQueryTable(cmd *cobra.Command, q domain.Query) {
	cmd.Printf("Domain:   %s\n", q.Domain.String())

	if len(q.Context) > 0 {
		keys := make([]string, 0, len(q.Context))
		for k := range q.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cmd.Println("Context:")
		for _, k := range keys {
			cmd.Printf("  %s = %v\n", k, q.Context[k])
		}
	}
	if len(q.GroupBy) > 0 {
		cmd.Printf("Group by: %s\n", strings.Join(q.GroupBy, " > "))
	}
	if len(q.OrderedBy) > 0 {
		cmd.Printf("Order:    %s\n", strings.Join(domain.FormatSort(q.OrderedBy), ", "))
	}
	if tr := q.TimeRanges; tr != nil {
		cmd.Printf("Range:    %s %s %s\n", tr.FieldName, tr.RangeDescription, tr.Range.String())
		if tr.HasComparison() {
			cmd.Printf("Compare:  %s %s\n", tr.ComparisonRangeDescription, tr.ComparisonRange.String())
		}
	}
}

func runFacets(cmd *cobra.Command, _ []string) error {
	if _, err := openPanel(cmd); err != nil {
		return err
	}

	facets, err := panelService.Facets()
	if err != nil {
		return fmt.Errorf("facets failed: %w", err)
	}

	return render(cmd, facets, func() { outputFacetsTable(cmd, facets) })
}

func outputFacetsTable(cmd *cobra.Command, facets []domain.Facet) {
	if len(facets) == 0 {
		cmd.Println("No active filters.")
		return
	}
	for _, f := range facets {
		sep := " "
		if f.Separator != "" {
			sep = " " + f.Separator + " "
		}
		label := string(f.Type)
		if f.Title != "" {
			label = f.Title
		}
		cmd.Printf("  [%d] %s: %s\n", f.GroupID, label, strings.Join(f.Values, sep))
	}
}
