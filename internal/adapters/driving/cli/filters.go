package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

var filtersCmd = &cobra.Command{
	Use:   "filters [type]",
	Short: "List the filters of the panel",
	Long: `List the filters of the current view, with their ids and whether they
are active. Without a type, every type is listed.

Types: field, filter, groupBy, favorite, timeRange`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFilters,
}

func init() {
	rootCmd.AddCommand(filtersCmd)
}

func runFilters(cmd *cobra.Command, args []string) error {
	types := domain.AllFilterTypes()
	if len(args) == 1 {
		t := domain.FilterType(args[0])
		if !t.IsValid() {
			return fmt.Errorf("%w: filter type %q", domain.ErrInvalidInput, args[0])
		}
		types = []domain.FilterType{t}
	}

	if _, err := openPanel(cmd); err != nil {
		return err
	}

	var all []domain.Filter
	for _, t := range types {
		filters, err := panelService.FiltersOfType(t)
		if err != nil {
			return fmt.Errorf("failed to get filters: %w", err)
		}
		all = append(all, filters...)
	}

	return render(cmd, all, func() { outputFiltersTable(cmd, all) })
}

func outputFiltersTable(cmd *cobra.Command, filters []domain.Filter) {
	if len(filters) == 0 {
		cmd.Println("No filters found.")
		return
	}

	var current domain.FilterType
	for i := range filters {
		f := &filters[i]
		if f.Type != current {
			if current != "" {
				cmd.Println()
			}
			current = f.Type
			cmd.Printf("[%s]\n", current)
		}

		mark := " "
		if f.IsActive {
			mark = "*"
		}
		cmd.Printf("  %s %3d  %s", mark, f.ID, f.Description)
		if f.Invisible {
			cmd.Print(" (hidden)")
		}
		cmd.Println()

		if f.HasOptions {
			var options []string
			for _, o := range f.Options {
				if o.IsActive {
					options = append(options, "*"+o.OptionID)
				} else {
					options = append(options, o.OptionID)
				}
			}
			cmd.Printf("          options: %s\n", strings.Join(options, ", "))
		}
		for _, v := range f.AutocompleteValues {
			cmd.Printf("          = %s\n", v.Label)
		}
	}
}
