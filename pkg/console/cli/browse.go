package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const browseHelp = `commands:
  n                 next page
  p                 previous page
  r                 refresh the current page
  /term             search, shown once applied (empty term clears the search)
  f field[op]value  add a filter
  c                 clear filters
  s field asc|desc  sort
  <enter>           show the current page
  q                 quit`

// errSkipRender is returned by commands that print their own output.
var errSkipRender = errors.New("skip render")

// browser runs an interactive paged list over a Controller, one command per input line. A debounced
// search redraws from the timer goroutine, so all output happens under mu.
type browser struct {
	mu      sync.Mutex
	ctrl    *listing.Controller[model.Entity]
	out     io.Writer
	console *Console
	filters []listing.Filter
}

func (c *Console) browse(ctx context.Context, name string, fetcher listing.ListFetcher[model.Entity], flags ListFlags, searchField string) error {
	req, err := flags.request(c.cfg.PageSize)
	if err != nil {
		return err
	}

	b := &browser{out: c.out, console: c, filters: req.Filters}
	b.ctrl = listing.NewController(fetcher,
		listing.WithName(name),
		listing.WithPageSize(req.PageSize),
		listing.WithSort(req.Sort),
		listing.WithFilters(req.Filters...),
		listing.WithSearchField(searchField),
		listing.WithSearchDebounce(c.cfg.SearchDebounce()),
		listing.WithOnSearchApplied(b.searchApplied),
	)
	defer b.ctrl.Close()

	b.mu.Lock()
	fmt.Fprintln(b.out, browseHelp)
	b.report(b.ctrl.Load(ctx))
	b.mu.Unlock()

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "q" {
			return nil
		}
		b.mu.Lock()
		b.report(b.handle(ctx, line))
		b.mu.Unlock()
	}
	return scanner.Err()
}

func (b *browser) searchApplied(term string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	fmt.Fprintf(b.out, "search %q applied\n", term)
	b.report(err)
}

func (b *browser) handle(ctx context.Context, line string) error {
	switch {
	case line == "":
		return nil
	case line == "n":
		if !b.ctrl.Snapshot().HasNext {
			fmt.Fprintln(b.out, "already on the last page")
		}
		return b.ctrl.NextPage(ctx)
	case line == "p":
		if !b.ctrl.Snapshot().HasPrevious {
			fmt.Fprintln(b.out, "already on the first page")
		}
		return b.ctrl.PreviousPage(ctx)
	case line == "r":
		return b.ctrl.Refresh(ctx)
	case strings.HasPrefix(line, "/"):
		term := strings.TrimSpace(line[1:])
		b.ctrl.SetSearch(ctx, term)
		fmt.Fprintf(b.out, "search %q scheduled\n", term)
		return errSkipRender
	case line == "c":
		b.filters = nil
		return b.ctrl.SetFilters(ctx)
	case strings.HasPrefix(line, "f "):
		f, err := listing.ParseFilter(strings.TrimSpace(line[2:]))
		if err != nil {
			return err
		}
		b.filters = append(b.filters, f)
		return b.ctrl.SetFilters(ctx, b.filters...)
	case strings.HasPrefix(line, "s "):
		fields := strings.Fields(line[2:])
		if len(fields) != 2 {
			return fmt.Errorf("usage: s field asc|desc%w", model.ErrInvalidParameter)
		}
		direction, err := listing.ParseSortDirection(fields[1])
		if err != nil {
			return err
		}
		return b.ctrl.SetSort(ctx, listing.SortSpec{Field: fields[0], Direction: direction})
	default:
		fmt.Fprintln(b.out, browseHelp)
		return errSkipRender
	}
}

func (b *browser) report(err error) {
	if err == errSkipRender {
		return
	}
	if err != nil {
		logrus.Debugf("browse: %v", err)
	}

	snap := b.ctrl.Snapshot()
	switch snap.State {
	case listing.StateLoading:
		fmt.Fprintln(b.out, "loading...")
	case listing.StateError:
		fmt.Fprintf(b.out, "error: %v (r to retry)\n", snap.Err)
	default:
		if err != nil {
			fmt.Fprintf(b.out, "error: %v\n", err)
		}
		b.renderSnapshot(snap)
	}
}

func (b *browser) renderSnapshot(snap listing.Snapshot[model.Entity]) {
	fmt.Fprintf(b.out, "page %d", snap.PageIndex+1)
	if len(snap.Filters) > 0 {
		fmt.Fprintf(b.out, " | filters: %s", strings.Join(filterStrings(snap.Filters), ", "))
	}
	if snap.Sort.Field != "" {
		fmt.Fprintf(b.out, " | sort: %s %s", snap.Sort.Field, snap.Sort.Direction)
	}
	fmt.Fprintln(b.out)
	renderRows(b.out, snap.Rows, b.console.now())

	nav := make([]string, 0, 2)
	if snap.HasPrevious {
		nav = append(nav, "p: previous")
	}
	if snap.HasNext {
		nav = append(nav, "n: next")
	}
	if len(nav) > 0 {
		fmt.Fprintln(b.out, strings.Join(nav, " | "))
	}
}

func filterStrings(filters []listing.Filter) []string {
	return lo.Map(filters, func(f listing.Filter, _ int) string { return f.String() })
}
