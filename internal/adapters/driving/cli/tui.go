package cli

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui"
	"github.com/custodia-labs/cpanel/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui [view]",
	Short: "Launch the interactive control panel",
	Long: `Launch the interactive terminal control panel.

Type in the search input to get suggestions for the field in its label,
press esc to browse the filters, group-bys and favorites of the view, and
watch the query update as you go. Edits to the view file are picked up
while the panel is open.

Controls:
  tab      - Next field (input) / next menu (filters)
  ↑/k, ↓/j - Navigate
  Enter    - Add value / toggle filter
  x        - Remove the last facet
  c        - Clear all facets
  Esc      - Back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Panel:      panelService,
		Settings:   settingsService,
		Extensions: extensionNames,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	name := viewName
	if len(args) == 1 {
		name = args[0]
	}
	if name != "" {
		app.WithView(name)
	}

	// Reload the open view when its file changes (TUI is long-running).
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	app.WithContext(ctx)

	go func() {
		if err := panelService.Watch(ctx); err != nil {
			// Log but don't fail - a panel without reloads is still usable
			logger.Warn("tui: watching views stopped: %v", err)
		}
	}()

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
