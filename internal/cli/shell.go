package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/disaster-dashboard/internal/adapter/httpadapter"
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/filter"
	"github.com/couchcryptid/disaster-dashboard/internal/savedview"
)

const shellPrompt = "dashboard> "

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session that keeps screens and filters alive",
		Long: `shell keeps every screen open between commands, so filters can be edited
step by step and applied explicitly. When HTTP_ADDR is set, health, readiness,
screen status and metrics are served while the shell runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, appFrom(cmd))
		},
	}
}

func runShell(cmd *cobra.Command, app *App) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	var srv *httpadapter.Server
	if app.Config.HTTPAddr != "" {
		srv = httpadapter.NewServer(app.Config.HTTPAddr, app.Session, app, app.Logger)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(app.Config.SessionFile), "shell_history"),
		AutoComplete:    shellCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	sh := newShell(app, cmd.OutOrStdout(), cmd.ErrOrStderr())
	_, _ = fmt.Fprintln(sh.out, "Disaster dashboard shell. Type help for commands, quit to exit.")

	for gctx.Err() == nil {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if sh.exec(gctx, line) {
			break
		}
	}

	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), app.Config.ShutdownTimeout)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error("http server shutdown error", "error", err)
		}
	}
	cancel()
	return g.Wait()
}

func shellCompleter() *readline.PrefixCompleter {
	pages := []readline.PrefixCompleterInterface{
		readline.PcItem("map"), readline.PcItem("compare"), readline.PcItem("stats"),
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("use", pages...),
		readline.PcItem("filters"),
		readline.PcItem("countries"),
		readline.PcItem("country", readline.PcItem("add"), readline.PcItem("rm")),
		readline.PcItem("states"),
		readline.PcItem("types"),
		readline.PcItem("indicators"),
		readline.PcItem("years"),
		readline.PcItem("aggregate", readline.PcItem("individual"), readline.PcItem("types")),
		readline.PcItem("sort",
			readline.PcItem("year-asc"), readline.PcItem("year-desc"),
			readline.PcItem("indicator-asc"), readline.PcItem("indicator-desc")),
		readline.PcItem("apply"),
		readline.PcItem("retry"),
		readline.PcItem("show"),
		readline.PcItem("hover"),
		readline.PcItem("click"),
		readline.PcItem("zoom", readline.PcItem("in"), readline.PcItem("out"), readline.PcItem("home")),
		readline.PcItem("focus"),
		readline.PcItem("profile", readline.PcItem("country"), readline.PcItem("state")),
		readline.PcItem("save"),
		readline.PcItem("views"),
		readline.PcItem("open"),
		readline.PcItem("rename"),
		readline.PcItem("delete"),
		readline.PcItem("status"),
		readline.PcItem("quit"),
	)
}

// shell interprets one line at a time against the App's screens.
type shell struct {
	app    *App
	out    io.Writer
	errOut io.Writer
	page   domain.Page
}

func newShell(app *App, out, errOut io.Writer) *shell {
	return &shell{app: app, out: out, errOut: errOut, page: domain.PageMap}
}

func (s *shell) active() filterScreen {
	switch s.page {
	case domain.PageCompare:
		return s.app.Compare
	case domain.PageGlobalStats:
		return s.app.GlobalStats
	default:
		return s.app.Map
	}
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var err error
	switch strings.ToLower(word) {
	case "quit", "exit":
		return true
	case "help":
		s.help()
	case "use":
		err = s.use(rest)
	case "filters":
		for _, l := range describeFilters(s.active().Filters()) {
			s.println(l)
		}
	case "countries":
		s.edit(func(f *filter.State) { f.SetCountries(splitList(rest)...) })
	case "country":
		err = s.country(rest)
	case "states":
		s.edit(func(f *filter.State) { f.SetStates(splitList(rest)...) })
	case "types":
		types := make([]domain.DisasterType, 0)
		for _, t := range splitList(rest) {
			types = append(types, domain.DisasterType(t))
		}
		s.edit(func(f *filter.State) { f.SetDisasterTypes(types...) })
	case "indicators":
		keys := parseIndicators(splitList(rest))
		s.edit(func(f *filter.State) { f.SetIndicators(keys...) })
	case "years":
		err = s.years(rest)
	case "aggregate":
		err = s.flagEdit(filterFlags{aggregate: rest})
	case "sort":
		err = s.flagEdit(filterFlags{sort: rest})
	case "apply":
		err = s.active().Apply(ctx)
		if err == nil {
			s.show()
		}
	case "retry":
		err = s.active().Retry(ctx)
		if err == nil {
			s.show()
		}
	case "show":
		s.show()
	case "hover":
		renderTooltip(s.out, s.app.Map.Hover(rest))
	case "click":
		renderRoute(s.out, s.app.Map.Click(rest))
	case "zoom":
		err = s.zoom(rest)
	case "focus":
		err = s.app.Map.Focus(ctx)
		renderViewport(s.out, s.app.Map.Viewport())
	case "profile":
		err = s.profile(ctx, rest)
	case "save":
		err = s.save(ctx, rest)
	case "views":
		var entries []savedview.Entry
		entries, err = s.app.Views.List(ctx)
		if err == nil {
			renderViews(s.out, entries)
		}
	case "open":
		err = s.open(ctx, rest)
	case "rename":
		err = s.rename(ctx, rest)
	case "delete":
		err = s.remove(ctx, rest)
	case "status":
		s.status()
	default:
		err = fmt.Errorf("unknown command %q, type help", word)
	}

	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %s\n", errorText(err))
	}
	return false
}

func (s *shell) println(text string) { _, _ = fmt.Fprintln(s.out, text) }

func (s *shell) edit(fn func(*filter.State)) { s.active().Update(fn) }

func (s *shell) help() {
	s.println(`Screens:    use map|compare|stats, show, apply, retry, status
Filters:    filters, countries A, B, country add|rm NAME, states A, B,
            types A, B, indicators A, B, years START END,
            aggregate individual|types, sort year-asc|indicator-desc|...
Map:        hover NAME, click NAME, zoom in|out|home, focus
Profiles:   profile country NAME, profile state NAME
Views:      save TITLE, views, open ID, rename ID TITLE, delete ID
            quit`)
}

func (s *shell) use(name string) error {
	page, err := domain.ParsePage(name)
	if err != nil {
		return domain.NewValidationError("page", "%v", err)
	}
	s.page = page
	s.println("Active screen: " + string(page))
	return nil
}

func (s *shell) country(rest string) error {
	op, name, _ := strings.Cut(rest, " ")
	name = strings.TrimSpace(name)
	switch op {
	case "add":
		s.edit(func(f *filter.State) { f.AddCountry(name) })
	case "rm", "remove":
		s.edit(func(f *filter.State) { f.RemoveCountry(name) })
	default:
		return domain.NewValidationError("country", "usage: country add|rm NAME")
	}
	return nil
}

func (s *shell) years(rest string) error {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return domain.NewValidationError("years", "usage: years START END")
	}
	return s.flagEdit(filterFlags{start: fields[0], end: fields[1]})
}

// flagEdit reuses the command line flag parsing for one shell edit.
func (s *shell) flagEdit(flags filterFlags) error {
	sc := s.active()
	st := sc.Filters()
	notes, err := flags.apply(&st)
	if err != nil {
		return err
	}
	for _, n := range notes {
		_, _ = fmt.Fprintln(s.errOut, "note: "+n)
	}
	sc.Update(func(f *filter.State) { *f = st })
	return nil
}

func (s *shell) show() {
	switch s.page {
	case domain.PageCompare:
		showCompare(s.out, s.errOut, s.app.Compare)
	case domain.PageGlobalStats:
		showStats(s.out, s.errOut, s.app.GlobalStats)
	default:
		showMap(s.out, s.errOut, s.app.Map)
	}
}

func (s *shell) zoom(dir string) error {
	switch dir {
	case "in":
		s.app.Map.ZoomIn()
	case "out":
		s.app.Map.ZoomOut()
	case "home":
		s.app.Map.Home()
	default:
		return domain.NewValidationError("zoom", "usage: zoom in|out|home")
	}
	renderViewport(s.out, s.app.Map.Viewport())
	return nil
}

func (s *shell) profile(ctx context.Context, rest string) error {
	kind, name, _ := strings.Cut(rest, " ")
	name = strings.TrimSpace(name)
	switch kind {
	case "country":
		if err := s.app.Country.Open(ctx, name); err != nil {
			return err
		}
		showCountry(s.out, s.errOut, s.app.Country)
	case "state":
		if err := s.app.State.Open(ctx, name); err != nil {
			return err
		}
		showState(s.out, s.errOut, s.app.State)
	default:
		return domain.NewValidationError("profile", "usage: profile country|state NAME")
	}
	return nil
}

func (s *shell) save(ctx context.Context, title string) error {
	v, err := s.app.Views.Save(ctx, title, s.active().Filters(), s.page)
	if err != nil {
		return err
	}
	s.println(fmt.Sprintf("Saved view %q", v.Title))
	return nil
}

func (s *shell) open(ctx context.Context, arg string) error {
	id, err := parseViewID(arg)
	if err != nil {
		return err
	}
	page, err := openView(ctx, s.app, id, s.out, s.errOut)
	if page != "" {
		s.page = page
	}
	return err
}

func (s *shell) rename(ctx context.Context, rest string) error {
	idText, title, _ := strings.Cut(rest, " ")
	id, err := parseViewID(idText)
	if err != nil {
		return err
	}
	return s.app.Views.Rename(ctx, id, title)
}

func (s *shell) remove(ctx context.Context, arg string) error {
	id, err := parseViewID(arg)
	if err != nil {
		return err
	}
	return s.app.Views.Delete(ctx, id)
}

func (s *shell) status() {
	st := s.app.ScreenStatus()
	names := make([]string, 0, len(st))
	for n := range st {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		s.println(fmt.Sprintf("%-16s %s", n, st[n]))
	}
	user := s.app.Session.Username()
	if user == "" {
		user = "(not logged in)"
	}
	s.println("user:            " + user)
	s.println("active screen:   " + string(s.page))
}

// splitList splits a comma separated argument. Names may contain spaces.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
