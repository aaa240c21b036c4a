package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage saved favorites",
	Long:  `List, save or delete favorites of the current view.`,
	RunE:  runFavoritesList,
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	Args:  cobra.NoArgs,
	RunE:  runFavoritesList,
}

var favoritesSaveCmd = &cobra.Command{
	Use:   "save [name]",
	Short: "Save the current query as a favorite",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesSave,
}

var favoritesDeleteCmd = &cobra.Command{
	Use:   "delete [filter-id]",
	Short: "Delete a favorite",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavoritesDelete,
}

var (
	favoriteDefault bool
	favoriteShared  bool
)

func init() {
	favoritesSaveCmd.Flags().BoolVar(&favoriteDefault, "default", false, "activate the favorite when the view opens")
	favoritesSaveCmd.Flags().BoolVar(&favoriteShared, "shared", false, "share the favorite with all users")

	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesSaveCmd)
	favoritesCmd.AddCommand(favoritesDeleteCmd)
	rootCmd.AddCommand(favoritesCmd)
}

func runFavoritesList(cmd *cobra.Command, _ []string) error {
	if _, err := openPanel(cmd); err != nil {
		return err
	}

	favorites, err := panelService.FiltersOfType(domain.FilterTypeFavorite)
	if err != nil {
		return fmt.Errorf("failed to list favorites: %w", err)
	}

	return render(cmd, favorites, func() {
		if len(favorites) == 0 {
			cmd.Println("No favorites found.")
			return
		}
		for _, f := range favorites {
			mark := " "
			if f.IsActive {
				mark = "*"
			}
			scope := "private"
			if f.UserID == 0 {
				scope = "shared"
			}
			cmd.Printf("  %s %3d  %s (%s)", mark, f.ID, f.Description, scope)
			if f.IsDefault {
				cmd.Print(" [default]")
			}
			cmd.Println()
		}
	})
}

func runFavoritesSave(cmd *cobra.Command, args []string) error {
	return dispatch(cmd, controlpanel.MutationCreateNewFavorite, controlpanel.FavoriteDraft{
		Description: args[0],
		IsDefault:   favoriteDefault,
		IsShared:    favoriteShared,
	})
}

func runFavoritesDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "filter id")
	if err != nil {
		return err
	}
	if _, err := openPanel(cmd); err != nil {
		return err
	}
	if err := panelService.Dispatch(cmd.Context(), controlpanel.MutationDeleteFavorite, id); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	cmd.Println("Favorite deleted.")
	return nil
}
