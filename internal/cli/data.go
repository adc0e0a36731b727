package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/screen"
)

// maxProfileFetches bounds concurrent profile requests.
const maxProfileFetches = 4

// filterScreen is a screen driven by a filter selection.
type filterScreen interface {
	Filters() filter.State
	Update(edit func(*filter.State))
	Apply(ctx context.Context) error
	Retry(ctx context.Context) error
	Restore(ctx context.Context, s filter.State) error
	Banner() string
}

// applyFlags copies flags into sc's selection, printing any notes.
func applyFlags(cmd *cobra.Command, sc filterScreen, flags *filterFlags) error {
	s := sc.Filters()
	notes, err := flags.apply(&s)
	if err != nil {
		return err
	}
	for _, n := range notes {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "note: "+n)
	}
	sc.Update(func(f *filter.State) { *f = s })
	return nil
}

func saveView(cmd *cobra.Command, app *App, title string, sc filterScreen, page domain.Page) error {
	v, err := app.Views.Save(cmd.Context(), title, sc.Filters(), page)
	if err != nil {
		return err
	}
	if v.ID != 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved view #%d %q\n", v.ID, v.Title)
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved view %q\n", v.Title)
	}
	return nil
}

func newMapCommand() *cobra.Command {
	var (
		flags filterFlags
		hover string
		click string
		focus bool
		save  string
	)
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Show the disaster map data for a selection",
		Example: `  # Totals and default indicators for two countries
  dashboard map -c Japan -c Chile --start 1990 --end 2015

  # Tooltip for one region
  dashboard map -c Japan --hover Japan`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			m := app.Map
			if err := applyFlags(cmd, m, &flags); err != nil {
				return err
			}
			if err := m.Apply(cmd.Context()); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if hover != "" {
				renderTooltip(w, m.Hover(hover))
			} else {
				showMap(w, cmd.ErrOrStderr(), m)
			}
			if focus {
				if err := m.Focus(cmd.Context()); err != nil {
					app.Logger.Warn("map focus failed", "error", err)
				}
				renderViewport(w, m.Viewport())
			}
			if click != "" {
				renderRoute(w, m.Click(click))
			}
			if save != "" {
				return saveView(cmd, app, save, m, domain.PageMap)
			}
			return nil
		},
	}
	flags.bindSelection(cmd)
	cmd.Flags().StringVar(&hover, "hover", "", "Show the tooltip for one region")
	cmd.Flags().StringVar(&click, "click", "", "Show where clicking a region leads")
	cmd.Flags().BoolVar(&focus, "focus", false, "Centre the viewport on a single selected region")
	cmd.Flags().StringVar(&save, "save", "", "Save the selection under this title")
	return cmd
}

func newCompareCommand() *cobra.Command {
	var (
		flags filterFlags
		save  string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare countries side by side",
		Example: `  dashboard compare -c Japan -c Indonesia -i AvgGDP -i AvgUnemployment`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			if err := applyFlags(cmd, app.Compare, &flags); err != nil {
				return err
			}
			if err := app.Compare.Apply(cmd.Context()); err != nil {
				return err
			}
			showCompare(cmd.OutOrStdout(), cmd.ErrOrStderr(), app.Compare)
			if save != "" {
				return saveView(cmd, app, save, app.Compare, domain.PageCompare)
			}
			return nil
		},
	}
	flags.bindSelection(cmd)
	cmd.Flags().StringVar(&save, "save", "", "Save the selection under this title")
	return cmd
}

func newStatsCommand() *cobra.Command {
	var (
		flags filterFlags
		save  string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show global statistics",
		Example: `  dashboard stats --type Earthquake --aggregate individual --sort indicator-desc`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := appFrom(cmd)
			if err := applyFlags(cmd, app.GlobalStats, &flags); err != nil {
				return err
			}
			if err := app.GlobalStats.Apply(cmd.Context()); err != nil {
				return err
			}
			showStats(cmd.OutOrStdout(), cmd.ErrOrStderr(), app.GlobalStats)
			if save != "" {
				return saveView(cmd, app, save, app.GlobalStats, domain.PageGlobalStats)
			}
			return nil
		},
	}
	flags.bindStats(cmd)
	cmd.Flags().StringVar(&save, "save", "", "Save the selection under this title")
	return cmd
}

func newCountryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "country NAME...",
		Short: "Show country profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			profiles := make([]*screen.CountryProfile, len(args))
			for i := range args {
				profiles[i] = screen.NewCountryProfile(app.deps)
			}
			errs := openAll(cmd.Context(), args, func(ctx context.Context, i int) error {
				return profiles[i].Open(ctx, args[i])
			})
			for i, p := range profiles {
				if errs[i] != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[i], errorText(errs[i]))
					continue
				}
				showCountry(cmd.OutOrStdout(), cmd.ErrOrStderr(), p)
			}
			return errors.Join(errs...)
		},
	}
}

func newStateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "state NAME...",
		Short: "Show US state profiles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			profiles := make([]*screen.StateProfile, len(args))
			for i := range args {
				profiles[i] = screen.NewStateProfile(app.deps)
			}
			errs := openAll(cmd.Context(), args, func(ctx context.Context, i int) error {
				return profiles[i].Open(ctx, args[i])
			})
			for i, p := range profiles {
				if errs[i] != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", args[i], errorText(errs[i]))
					continue
				}
				showState(cmd.OutOrStdout(), cmd.ErrOrStderr(), p)
			}
			return errors.Join(errs...)
		},
	}
}

// openAll runs open for every name concurrently. One failed profile does not
// cancel the others; each error is reported in its slot.
func openAll(ctx context.Context, names []string, open func(ctx context.Context, i int) error) []error {
	errs := make([]error, len(names))
	var g errgroup.Group
	g.SetLimit(maxProfileFetches)
	for i := range names {
		g.Go(func() error {
			errs[i] = open(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func showMap(w, ew io.Writer, m *screen.Map) {
	headers, cells := mapTable(m.Highlighted(), m.Hover)
	renderTable(w, headers, cells)
	renderBanner(ew, m.Banner())
}

func showCompare(w, ew io.Writer, c *screen.Compare) {
	headers, cells := c.Table()
	renderTable(w, headers, cells)
	renderBanner(ew, c.Banner())
}

func showStats(w, ew io.Writer, g *screen.GlobalStats) {
	headers, cells := g.Table()
	renderTable(w, headers, cells)
	renderBanner(ew, g.Banner())
}

func showCountry(w, ew io.Writer, p *screen.CountryProfile) {
	_, _ = fmt.Fprintf(w, "== %s ==\n", p.Name())
	if b := p.Banner(); b != "" {
		renderBanner(ew, b)
		return
	}
	renderLines(w, "Overview", p.Overview())
	renderSeries(w, "Sectoral growth", p.Sectoral())
	renderSeries(w, "National indicators", p.National())
	renderSeries(w, "Disasters per year", p.Timeline())
	_, _ = fmt.Fprintln(w, "Disasters")
	headers, cells := p.Disasters()
	renderTable(w, headers, cells)
}

func showState(w, ew io.Writer, p *screen.StateProfile) {
	_, _ = fmt.Fprintf(w, "== %s ==\n", p.Name())
	if b := p.Banner(); b != "" {
		renderBanner(ew, b)
		return
	}
	renderLines(w, "Overview", p.Overview())
	renderSeries(w, "Economic growth", p.Growth())
	renderSeries(w, "Economic totals", p.Totals())
	renderSeries(w, "Disasters per year", p.Timeline())
	_, _ = fmt.Fprintln(w, "Disasters")
	headers, cells := p.Disasters()
	renderTable(w, headers, cells)
}
