// Package cli provides the cobra commands of the cpanel binary.
package cli

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cpanel/internal/core/ports/driving"
	"github.com/custodia-labs/cpanel/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	verbose      bool
	viewName     string
	outputFormat string
)

var (
	panelService    driving.ControlPanelService
	settingsService driving.SettingsService
	extensionNames  func() []string
	metricsHandler  http.Handler
)

var errPanelNotConfigured = errors.New("control panel service not configured")

var rootCmd = &cobra.Command{
	Use:   "cpanel",
	Short: "Build search queries from a control panel",
	Long: `cpanel turns search view definitions into a control panel of filters,
group-bys, favorites and time ranges, and prints the query they build.

Panel state is saved per view, so successive commands build on each other:

  cpanel toggle 3
  cpanel groupby stage
  cpanel query`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

// Services holds the services the commands run against.
type Services struct {
	Panel    driving.ControlPanelService
	Settings driving.SettingsService

	// Extensions lists the registered extension ids.
	Extensions func() []string

	// Metrics is served on /metrics by the HTTP MCP server. Optional.
	Metrics http.Handler
}

// SetServices sets the services used by the commands.
func SetServices(s Services) {
	panelService = s.Panel
	settingsService = s.Settings
	extensionNames = s.Extensions
	metricsHandler = s.Metrics
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Verbose reports whether --verbose was given. Valid once flags are parsed.
func Verbose() bool {
	return verbose
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&viewName, "view", "", "search view to open (default: configured default view)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: auto, table or json (default: configured format)")
}
