// Command browse pages through one entity kind of the catalog API from a
// terminal. It reads commands from stdin:
//
//	next | prev | page N | search TEXT | filter KEY [VALUE] | select ID | reload | help | quit
//
// Logs go to stderr so stdout carries only the rendered list.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/simp-lee/logger"

	"github.com/simp-lee/storeadmin/internal/app"
	"github.com/simp-lee/storeadmin/internal/browser"
	"github.com/simp-lee/storeadmin/internal/config"
	"github.com/simp-lee/storeadmin/internal/domain"
	"github.com/simp-lee/storeadmin/internal/module/dashboard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "browse:", err)
		os.Exit(1)
	}
}

const helpText = `commands:
  next, prev          move one page
  page N              jump to page N
  search TEXT         search (empty TEXT clears)
  filter KEY [VALUE]  set or clear a filter
  select ID           show the detail panel for ID
  reload              fetch the current page again
  quit                exit`

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "configs/config.yaml", "path to configuration file")
	kindName := fs.String("kind", string(domain.KindProducts), "entity kind to browse")
	search := fs.String("search", "", "initial search text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	kind, err := domain.ParseEntityKind(*kindName)
	if err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := config.SetupLogger(&cfg.Log, logger.WithConsoleWriter(stderr))
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer log.Close()

	client, err := app.NewCatalogClient(cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("setup catalog client: %w", err)
	}
	sessions := dashboard.NewFactory(client, dashboard.Options{
		PageSize:   cfg.Upstream.PageSize,
		MaxVisible: cfg.Upstream.MaxVisiblePages,
		Logger:     log.Logger,
	})

	var initial *browser.QueryState
	if *search != "" {
		q := browser.NewQueryState(kind, sessions.PageSize()).WithSearch(*search)
		initial = &q
	}
	s, err := sessions.New(kind, initial)
	if err != nil {
		return err
	}

	t := &terminal{session: s, out: stdout}
	if err := t.await(ctx, s.Reload(ctx)); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		quit, err := t.exec(ctx, scanner.Text())
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// terminal drives one session from text commands.
type terminal struct {
	session dashboard.Session
	out     io.Writer
}

// exec runs one command line. It reports quit for "quit" and returns an
// error only when ctx ends while a fetch is outstanding.
func (t *terminal) exec(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(t.out, helpText)
	case "reload":
		return false, t.await(ctx, t.session.Reload(ctx))
	case "next", "n":
		p := t.session.Page()
		switch {
		case p.Pager.HasNext:
			return false, t.goTo(ctx, p.Pager.Next)
		case !p.Pager.Visible && p.View.State == browser.ViewFailure:
			// The page count is unknown after a failed fetch.
			return false, t.goTo(ctx, p.Query.CurrentPage+1)
		}
		fmt.Fprintln(t.out, "already on the last page")
	case "prev", "p":
		p := t.session.Page()
		if p.Query.CurrentPage <= 1 {
			fmt.Fprintln(t.out, "already on the first page")
			return false, nil
		}
		target := p.Query.CurrentPage - 1
		if p.Pager.Visible {
			target = p.Pager.Prev
		}
		return false, t.goTo(ctx, target)
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(t.out, "invalid page %q\n", arg)
			return false, nil
		}
		return false, t.goTo(ctx, n)
	case "search":
		return false, t.await(ctx, t.session.Search(ctx, arg))
	case "filter":
		key, value, _ := strings.Cut(arg, " ")
		if key == "" {
			fmt.Fprintln(t.out, "usage: filter KEY [VALUE]")
			return false, nil
		}
		return false, t.await(ctx, t.session.SetFilter(ctx, key, strings.TrimSpace(value)))
	case "select":
		id, err := strconv.ParseUint(arg, 10, 0)
		if err != nil || id == 0 {
			fmt.Fprintf(t.out, "invalid id %q\n", arg)
			return false, nil
		}
		if !t.session.Select(uint(id)) {
			t.session.LoadDetail(ctx, uint(id))
		}
		t.print()
	default:
		fmt.Fprintf(t.out, "unknown command %q (try help)\n", cmd)
	}
	return false, nil
}

func (t *terminal) goTo(ctx context.Context, page int) error {
	done, err := t.session.SetPage(ctx, page)
	if err != nil {
		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			fmt.Fprintln(t.out, appErr.Message)
			return nil
		}
		return err
	}
	return t.await(ctx, done)
}

func (t *terminal) await(ctx context.Context, done <-chan struct{}) error {
	if err := dashboard.Wait(ctx, done); err != nil {
		return err
	}
	t.print()
	return nil
}

func (t *terminal) print() {
	printPage(t.out, t.session.Page())
}

func printPage(w io.Writer, p dashboard.Page) {
	fmt.Fprintf(w, "== %s ==\n", p.Title)
	if p.Query.SearchQuery != "" {
		fmt.Fprintf(w, "search: %q\n", p.Query.SearchQuery)
	}

	switch p.View.State {
	case browser.ViewLoading:
		fmt.Fprintln(w, "loading...")
	case browser.ViewFailure:
		fmt.Fprintln(w, "error:", p.View.Message)
	case browser.ViewEmpty:
		fmt.Fprintln(w, p.View.Message)
	default:
		for _, row := range p.View.Rows {
			marker := " "
			if row.Selected {
				marker = ">"
			}
			fmt.Fprintf(w, "%s %4d  %s\n", marker, row.ID, row.Label)
		}
	}

	if p.Pager.Visible {
		fmt.Fprintf(w, "page %d of %d (%d of %d records): %s\n",
			p.Query.CurrentPage, p.Pager.Total, p.RecordsFiltered, p.RecordsTotal, pageStrip(p.Pager))
	} else if p.View.State == browser.ViewFailure {
		fmt.Fprintf(w, "page %d\n", p.Query.CurrentPage)
	}

	if d := p.Detail; d != nil {
		if d.Message != "" {
			fmt.Fprintf(w, "detail %d: %s\n", d.ID, d.Message)
		} else {
			fmt.Fprintf(w, "detail %d: %s\n", d.ID, d.Label)
		}
	}
}

func pageStrip(p browser.Pager) string {
	parts := make([]string, 0, len(p.Links))
	for _, link := range p.Links {
		switch {
		case link.Ellipsis:
			parts = append(parts, "...")
		case link.Page == p.Current:
			parts = append(parts, "["+strconv.Itoa(link.Page)+"]")
		default:
			parts = append(parts, strconv.Itoa(link.Page))
		}
	}
	return strings.Join(parts, " ")
}
