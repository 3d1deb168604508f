package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rental-normalizer/services"
	"rental-normalizer/storage"
)

func FavoriteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Mark a listing as favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			off, _ := cmd.Flags().GetBool("off")

			err := services.NewFavoriteService(app.Store, app.Logger).Set(cmd.Context(), args[0], !off)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no listing with id %q", args[0])
			}
			if err != nil {
				return err
			}

			state := "marked"
			if off {
				state = "unmarked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], state)
			return nil
		},
	}
	cmd.Flags().Bool("off", false, "remove the favorite mark")
	return cmd
}

func FavoritesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "favorites",
		Short: "List favorite listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := services.NewFavoriteService(app.Store, app.Logger).List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(favs) == 0 {
				fmt.Fprintln(out, "No favorites.")
				return nil
			}
			for _, f := range favs {
				fmt.Fprintf(out, "%s\t$%d\t%dbd\t%s\n", f.ID, f.Listing.Rent, f.Listing.Bedrooms, f.Status)
			}
			return nil
		},
	}
}
