package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle [filter-id] [option-id]",
	Short: "Toggle a filter or one of its options",
	Long: `Activate or deactivate a filter. Filters with options (date filters,
date group-bys) take an option id; without one the default option is used.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runToggle,
}

var addCmd = &cobra.Command{
	Use:   "add [field-filter-id] [value]",
	Short: "Search a field for a value",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var groupByCmd = &cobra.Command{
	Use:   "groupby [field]",
	Short: "Group by a field",
	Long:  `Create a custom group-by on a field and activate it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupBy,
}

var timeRangeCmd = &cobra.Command{
	Use:   "timerange [field] [range-id] [comparison-range-id]",
	Short: "Restrict a date field to a time range",
	Long: `Activate the time range filter on a date field, optionally compared with
another range.

Ranges:
  last_7_days, last_30_days, last_365_days, last_5_years
  today, this_week, this_month, this_quarter, this_year
  yesterday, last_week, last_month, last_quarter, last_year
Comparisons:
  previous_period, previous_year`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runTimeRange,
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate [group-id]",
	Short: "Deactivate every filter of a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeactivate,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deactivate all filters",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

var autocompleteCmd = &cobra.Command{
	Use:   "autocomplete [field-filter-id] [term]",
	Short: "Suggest values of a field",
	Args:  cobra.ExactArgs(2),
	RunE:  runAutocomplete,
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch [mutation] [json-args...]",
	Short: "Run a mutation with JSON arguments",
	Long: `Run any panel mutation. Each argument is a JSON value.

Examples:
  cpanel dispatch toggleFilter 3
  cpanel dispatch createNewFilters '[{"description":"Mine","field":"user_id","operator":"=","value":1}]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDispatch,
}

var addOperator string

func init() {
	addCmd.Flags().StringVar(&addOperator, "operator", "", "comparison operator (default: the field's operator)")

	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(groupByCmd)
	rootCmd.AddCommand(timeRangeCmd)
	rootCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(autocompleteCmd)
	rootCmd.AddCommand(dispatchCmd)
}

func parseID(s, what string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidInput, what, s)
	}
	return id, nil
}

// dispatch opens the panel, runs a mutation and prints the resulting query.
func dispatch(cmd *cobra.Command, mutation string, args ...any) error {
	if _, err := openPanel(cmd); err != nil {
		return err
	}
	if err := panelService.Dispatch(cmd.Context(), mutation, args...); err != nil {
		return fmt.Errorf("%s failed: %w", mutation, err)
	}
	return printQuery(cmd)
}

func runToggle(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "filter id")
	if err != nil {
		return err
	}
	if len(args) == 2 {
		return dispatch(cmd, controlpanel.MutationToggleFilterWithOptions, id, args[1])
	}

	m, err := openPanel(cmd)
	if err != nil {
		return err
	}
	if hasOptions(m, id) {
		return dispatch(cmd, controlpanel.MutationToggleFilterWithOptions, id)
	}
	return dispatch(cmd, controlpanel.MutationToggleFilter, id)
}

func hasOptions(m *controlpanel.Model, id int) bool {
	for _, t := range []domain.FilterType{domain.FilterTypeFilter, domain.FilterTypeGroupBy} {
		filters, err := m.FiltersOfType(t)
		if err != nil {
			continue
		}
		for _, f := range filters {
			if f.ID == id {
				return f.HasOptions
			}
		}
	}
	return false
}

func runAdd(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "filter id")
	if err != nil {
		return err
	}
	return dispatch(cmd, controlpanel.MutationAddAutoCompletionValues, controlpanel.AutocompleteSelection{
		FilterID: id,
		Label:    args[1],
		Value:    args[1],
		Operator: addOperator,
	})
}

func runGroupBy(cmd *cobra.Command, args []string) error {
	return dispatch(cmd, controlpanel.MutationCreateNewGroupBy, args[0])
}

func runTimeRange(cmd *cobra.Command, args []string) error {
	comparison := ""
	if len(args) == 3 {
		comparison = args[2]
	}
	return dispatch(cmd, controlpanel.MutationActivateTimeRange, args[0], args[1], comparison)
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "group id")
	if err != nil {
		return err
	}
	return dispatch(cmd, controlpanel.MutationDeactivateGroup, id)
}

func runClear(cmd *cobra.Command, _ []string) error {
	return dispatch(cmd, controlpanel.MutationClearQuery)
}

func runAutocomplete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "filter id")
	if err != nil {
		return err
	}
	m, err := openPanel(cmd)
	if err != nil {
		return err
	}
	if err := m.Dispatch(cmd.Context(), controlpanel.MutationFetchAutocomplete, id, args[1]); err != nil {
		return fmt.Errorf("autocomplete failed: %w", err)
	}

	values := controlpanel.SelectSuggestions(m.Snapshot()).Values
	return render(cmd, values, func() {
		if len(values) == 0 {
			cmd.Println("No suggestions.")
			return
		}
		for _, v := range values {
			cmd.Printf("  %s\n", v.Label)
		}
	})
}

func runDispatch(cmd *cobra.Command, args []string) error {
	raw := make([]json.RawMessage, 0, len(args)-1)
	for _, a := range args[1:] {
		if !json.Valid([]byte(a)) {
			return fmt.Errorf("%w: argument %q is not JSON", domain.ErrInvalidInput, a)
		}
		raw = append(raw, json.RawMessage(a))
	}
	decoded, err := controlpanel.DecodeArgs(args[0], raw)
	if err != nil {
		return err
	}
	return dispatch(cmd, args[0], decoded...)
}
