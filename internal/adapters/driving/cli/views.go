package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List available search views",
	RunE:  runViews,
}

func init() {
	rootCmd.AddCommand(viewsCmd)
}

func runViews(cmd *cobra.Command, _ []string) error {
	if panelService == nil {
		return errPanelNotConfigured
	}

	names, err := panelService.Views(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list views: %w", err)
	}

	return render(cmd, names, func() {
		if len(names) == 0 {
			cmd.Println("No views found.")
			return
		}
		for _, name := range names {
			cmd.Printf("  %s\n", name)
		}
	})
}
