package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/savedview"
)

func newViewsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "views",
		Short: "Manage saved views",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved views",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := appFrom(cmd).Views.List(cmd.Context())
			if err != nil {
				return err
			}
			renderViews(cmd.OutOrStdout(), entries)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rename ID TITLE",
		Short: "Rename a saved view",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseViewID(args[0])
			if err != nil {
				return err
			}
			title := strings.Join(args[1:], " ")
			if err := appFrom(cmd).Views.Rename(cmd.Context(), id, title); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed view #%d to %q\n", id, title)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseViewID(args[0])
			if err != nil {
				return err
			}
			if err := appFrom(cmd).Views.Delete(cmd.Context(), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted view #%d\n", id)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "open ID",
		Short: "Restore a saved view into its screen and show it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseViewID(args[0])
			if err != nil {
				return err
			}
			app := appFrom(cmd)
			_, err = openView(cmd.Context(), app, id, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return err
		},
	})
	return cmd
}

func parseViewID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "%q is not a saved view id", s)
	}
	return id, nil
}

// openView restores a saved view into the screen its page names, fetches
// and renders it. It returns the page opened.
func openView(ctx context.Context, app *App, id int64, w, ew io.Writer) (domain.Page, error) {
	entry, err := app.Views.Get(ctx, id)
	if err != nil {
		return "", err
	}
	route, err := savedview.Navigate(entry)
	if err != nil {
		return "", err
	}

	_, _ = fmt.Fprintf(w, "Opening %q on %s\n", entry.View.Title, route.Page)
	switch route.Page {
	case domain.PageMap:
		if err := app.Map.Restore(ctx, route.Filters); err != nil {
			return route.Page, err
		}
		showMap(w, ew, app.Map)
	case domain.PageCompare:
		if err := app.Compare.Restore(ctx, route.Filters); err != nil {
			return route.Page, err
		}
		showCompare(w, ew, app.Compare)
	case domain.PageGlobalStats:
		if err := app.GlobalStats.Restore(ctx, route.Filters); err != nil {
			return route.Page, err
		}
		showStats(w, ew, app.GlobalStats)
	}
	return route.Page, nil
}

func renderViews(w io.Writer, entries []savedview.Entry) {
	headers := []string{"ID", "Title", "Page", "Countries", "Years"}
	cells := make([][]string, 0, len(entries))
	for _, e := range entries {
		cells = append(cells, []string{
			strconv.FormatInt(e.View.ID, 10),
			e.View.Title,
			string(e.View.Page),
			joinOrNone(e.Filters.Countries()),
			fmt.Sprintf("%d-%d", e.Filters.StartYear(), e.Filters.EndYear()),
		})
	}
	renderTable(w, headers, cells)
}
