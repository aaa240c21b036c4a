package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

// isTerminal reports whether stdout is a terminal. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// resolveOutput picks the output format: the --output flag, then the
// configured format. Auto prints tables on a terminal and JSON otherwise.
func resolveOutput() (domain.OutputFormat, error) {
	format := domain.OutputFormat(outputFormat)
	if format == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			format = settings.Output
		}
	}
	if format == "" {
		format = domain.OutputFormatAuto
	}
	if !format.IsValid() {
		return "", fmt.Errorf("%w: output format %q", domain.ErrInvalidInput, format)
	}
	if format == domain.OutputFormatAuto {
		if isTerminal() {
			return domain.OutputFormatTable, nil
		}
		return domain.OutputFormatJSON, nil
	}
	return format, nil
}

// render prints v as JSON or calls table, depending on the output format.
func render(cmd *cobra.Command, v any, table func()) error {
	format, err := resolveOutput()
	if err != nil {
		return err
	}
	if format == domain.OutputFormatJSON {
		return outputJSON(cmd, v)
	}
	table()
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := domain.EncodeJSON(v, "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// openPanel opens the view named by --view, or the default view.
func openPanel(cmd *cobra.Command) (*controlpanel.Model, error) {
	if panelService == nil {
		return nil, errPanelNotConfigured
	}
	m, err := panelService.Open(cmd.Context(), viewName)
	if err != nil {
		return nil, fmt.Errorf("failed to open view: %w", err)
	}
	return m, nil
}
