package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cpanel/internal/core/domain"
)

var errSettingsNotConfigured = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the default view, output format, panel behaviour and
extensions.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to pick the default view and output format.`,
	RunE:  runSettingsWizard,
}

var settingsViewCmd = &cobra.Command{
	Use:   "view [name]",
	Short: "Set the default view",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsView,
}

var settingsOutputCmd = &cobra.Command{
	Use:   "output [format]",
	Short: "Set the output format",
	Long: `Set how results are printed.

Available formats:
  auto  - Tables on a terminal, JSON otherwise
  table - Aligned text
  json  - JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsOutput,
}

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "List extensions",
	Long: `List the available extensions and whether they are enabled.

Extensions change how every panel builds its query and facets:
  active_only   - Hide archived records of models with an active field
  default_order - Sort queries without an order (needs extensions.default_order.order)
  facet_counts  - Show the number of values in field facets`,
	RunE: runExtensionsList,
}

var extensionsEnableCmd = &cobra.Command{
	Use:   "enable [id]",
	Short: "Enable an extension",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtensionsEnable,
}

var extensionsDisableCmd = &cobra.Command{
	Use:   "disable [id]",
	Short: "Disable an extension",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtensionsDisable,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsViewCmd)
	settingsCmd.AddCommand(settingsOutputCmd)
	extensionsCmd.AddCommand(extensionsEnableCmd)
	extensionsCmd.AddCommand(extensionsDisableCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(extensionsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Views]")
	cmd.Printf("  Directory: %s\n", orDefault(settings.ViewsDir))
	cmd.Printf("  Default: %s\n", orNotSet(settings.DefaultView))
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Directory: %s\n", orDefault(settings.StorageDir))
	cmd.Println()

	cmd.Println("[Output]")
	cmd.Printf("  Format: %s\n", settings.Output)
	cmd.Println()

	cmd.Println("[Panel]")
	cmd.Printf("  User: %d\n", settings.Panel.UserID)
	cmd.Printf("  Combine favorites: %s\n", yesNo(settings.Panel.AllowFavoriteCombination))
	menus := make([]string, 0, len(settings.Panel.SearchMenuTypes))
	for _, t := range settings.Panel.SearchMenuTypes {
		menus = append(menus, t.String())
	}
	cmd.Printf("  Menus: %s\n", strings.Join(menus, ", "))
	cmd.Printf("  Extensions: %s\n", orNotSet(strings.Join(settings.Panel.Extensions, ", ")))
	cmd.Println()

	cmd.Println("[Autocomplete]")
	cmd.Printf("  Rate: %g/s\n", settings.Autocomplete.Rate)
	cmd.Printf("  Burst: %d\n", settings.Autocomplete.Burst)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'cpanel settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	if panelService == nil {
		return errPanelNotConfigured
	}

	cmd.Println("cpanel Settings Wizard")
	cmd.Println("======================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Default view
	cmd.Println("Step 1: Select Default View")
	cmd.Println("---------------------------")
	views, err := panelService.Views(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list views: %w", err)
	}
	if len(views) == 0 {
		cmd.Println("No views found, skipping.")
	} else {
		for i, v := range views {
			cmd.Printf("  %d. %s\n", i+1, v)
		}
		cmd.Print("\nEnter choice [1]: ")
		idx := parseChoice(readLine(reader), len(views), 1)
		if err := settingsService.SetDefaultView(views[idx-1]); err != nil {
			return fmt.Errorf("failed to set default view: %w", err)
		}
		cmd.Printf("Set default view to: %s\n", views[idx-1])
	}
	cmd.Println()

	// Step 2: Output format
	cmd.Println("Step 2: Select Output Format")
	cmd.Println("----------------------------")
	formats := domain.AllOutputFormats()
	for i, f := range formats {
		cmd.Printf("  %d. %s\n", i+1, f)
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(formats), 1)
	if err := settingsService.SetOutput(formats[idx-1]); err != nil {
		return fmt.Errorf("failed to set output format: %w", err)
	}
	cmd.Printf("Set output format to: %s\n\n", formats[idx-1])

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsView(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	if err := settingsService.SetDefaultView(args[0]); err != nil {
		return fmt.Errorf("failed to set default view: %w", err)
	}
	cmd.Printf("Default view set to: %s\n", args[0])
	return nil
}

func runSettingsOutput(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	format := domain.OutputFormat(args[0])
	if err := settingsService.SetOutput(format); err != nil {
		return fmt.Errorf("failed to set output format: %w", err)
	}
	cmd.Printf("Output format set to: %s\n", format)
	return nil
}

func runExtensionsList(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	enabled := make(map[string]bool, len(settings.Panel.Extensions))
	for _, id := range settings.Panel.Extensions {
		enabled[id] = true
	}
	var names []string
	if extensionNames != nil {
		names = extensionNames()
	}
	if len(names) == 0 {
		cmd.Println("No extensions available.")
		return nil
	}
	for _, id := range names {
		mark := " "
		if enabled[id] {
			mark = "*"
		}
		cmd.Printf("  %s %s\n", mark, id)
	}
	return nil
}

func runExtensionsEnable(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	if err := settingsService.EnableExtension(args[0]); err != nil {
		return fmt.Errorf("failed to enable extension: %w", err)
	}
	cmd.Printf("Extension enabled: %s\n", args[0])
	return nil
}

func runExtensionsDisable(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	if err := settingsService.DisableExtension(args[0]); err != nil {
		return fmt.Errorf("failed to disable extension: %w", err)
	}
	cmd.Printf("Extension disabled: %s\n", args[0])
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
