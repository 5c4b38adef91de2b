// Package listing drives cursor based pagination of remote lists.
//
// The server only hands out forward bookmarks. The Controller keeps every bookmark it has received in an
// append-only stack so users can walk back without the server supporting backward seeks.
package listing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

const (
	DefaultPageSize       = 25
	MaxPageSize           = 500
	DefaultSearchDebounce = 500 * time.Millisecond
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Snapshot is a copy of the controller state, safe to keep after the controller moves on.
type Snapshot[Row any] struct {
	State       State
	Rows        []Row
	PageIndex   int
	Bookmarks   []Bookmark
	HasNext     bool
	HasPrevious bool
	Sort        SortSpec
	Filters     []Filter
	Search      string
	Err         error
}

type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	name           string
	pageSize       int
	sort           SortSpec
	filters        []Filter
	searchField    string
	searchDebounce time.Duration
	onSearch       func(term string, err error)
}

// WithName sets the name used in log lines.
func WithName(name string) ControllerOption {
	return func(o *controllerOptions) {
		o.name = name
	}
}

func WithPageSize(pageSize int) ControllerOption {
	return func(o *controllerOptions) {
		o.pageSize = pageSize
	}
}

func WithSort(sort SortSpec) ControllerOption {
	return func(o *controllerOptions) {
		o.sort = sort
	}
}

func WithFilters(filters ...Filter) ControllerOption {
	return func(o *controllerOptions) {
		o.filters = append([]Filter(nil), filters...)
	}
}

// WithSearchField sets the field that search terms are matched against with OpContains.
func WithSearchField(field string) ControllerOption {
	return func(o *controllerOptions) {
		o.searchField = field
	}
}

func WithSearchDebounce(quiet time.Duration) ControllerOption {
	return func(o *controllerOptions) {
		o.searchDebounce = quiet
	}
}

// WithOnSearchApplied registers fn to run, on the debounce goroutine, after a scheduled search has been
// applied. err is the result of the fetch it triggered.
func WithOnSearchApplied(fn func(term string, err error)) ControllerOption {
	return func(o *controllerOptions) {
		o.onSearch = fn
	}
}

type cachedPage[Row any] struct {
	rows []Row
	next Bookmark
}

// Controller is the paged list state machine: Idle, Loading, Loaded, Error.
//
// All state is guarded by mu, which is released while the fetcher runs. Every fetch takes a generation
// number; a result that arrives after a newer fetch was started is dropped.
type Controller[Row any] struct {
	mu      sync.Mutex
	fetcher ListFetcher[Row]
	name    string

	pageSize    int
	sort        SortSpec
	filters     []Filter
	search      string
	searchField string
	debouncer   *Debouncer
	onSearch    func(term string, err error)

	state      State
	bookmarks  []Bookmark
	index      int
	rows       []Row
	next       Bookmark
	err        error
	pages      map[int]cachedPage[Row]
	generation uint64
}

func NewController[Row any](fetcher ListFetcher[Row], opts ...ControllerOption) *Controller[Row] {
	options := controllerOptions{
		name:           "list",
		pageSize:       DefaultPageSize,
		searchDebounce: DefaultSearchDebounce,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if fetcher == nil {
		panic("fetcher is required")
	}
	if options.pageSize <= 0 {
		options.pageSize = DefaultPageSize
	}

	return &Controller[Row]{
		fetcher:     fetcher,
		name:        options.name,
		pageSize:    options.pageSize,
		sort:        options.sort,
		filters:     options.filters,
		searchField: options.searchField,
		debouncer:   NewDebouncer(options.searchDebounce),
		onSearch:    options.onSearch,
		state:       StateIdle,
		bookmarks:   []Bookmark{FirstPage},
		pages:       make(map[int]cachedPage[Row]),
	}
}

// Load fetches the first page with the current parameters.
func (c *Controller[Row]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.resetLocked()
	return c.fetchLocked(ctx, 0)
}

func (c *Controller[Row]) SetFilters(ctx context.Context, filters ...Filter) error {
	for _, f := range filters {
		if err := ValidateFilter(f); err != nil {
			return err
		}
	}

	c.mu.Lock()
	if equalFilters(c.filters, filters) && c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.filters = append([]Filter(nil), filters...)
	c.resetLocked()
	return c.fetchLocked(ctx, 0)
}

func (c *Controller[Row]) SetSort(ctx context.Context, sort SortSpec) error {
	if err := ValidateSortSpec(sort); err != nil {
		return err
	}

	c.mu.Lock()
	if c.sort == sort && c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.sort = sort
	c.resetLocked()
	return c.fetchLocked(ctx, 0)
}

func (c *Controller[Row]) SetPageSize(ctx context.Context, pageSize int) error {
	if pageSize < 1 || pageSize > MaxPageSize {
		return fmt.Errorf("page size must be between 1 and %d%w", MaxPageSize, model.ErrInvalidParameter)
	}

	c.mu.Lock()
	if c.pageSize == pageSize && c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.pageSize = pageSize
	c.resetLocked()
	return c.fetchLocked(ctx, 0)
}

// SetSearch schedules a search on the configured search field. The term is applied, as a filter change,
// only once no other SetSearch call has arrived for the debounce period. Errors of the resulting fetch
// are reported through Snapshot.
func (c *Controller[Row]) SetSearch(ctx context.Context, term string) {
	c.debouncer.Trigger(func() {
		err := c.applySearch(ctx, term)
		if err != nil {
			logrus.Debugf("%s: search %q failed: %v", c.name, term, err)
		}
		if c.onSearch != nil {
			c.onSearch(term, err)
		}
	})
}

func (c *Controller[Row]) applySearch(ctx context.Context, term string) error {
	c.mu.Lock()
	if c.search == term && c.state != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.search = term
	c.resetLocked()
	return c.fetchLocked(ctx, 0)
}

// NextPage moves one page forward. It does nothing while a fetch is in flight or when the current page
// has no next bookmark.
func (c *Controller[Row]) NextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateLoading || c.next == FirstPage {
		c.mu.Unlock()
		return nil
	}

	target := c.index + 1
	if target >= len(c.bookmarks) {
		c.bookmarks = append(c.bookmarks, c.next)
	}
	if page, ok := c.pages[target]; ok {
		c.showLocked(target, page)
		c.mu.Unlock()
		return nil
	}
	return c.fetchLocked(ctx, target)
}

// PreviousPage moves one page back, replaying the page that was shown there. It never creates a bookmark.
func (c *Controller[Row]) PreviousPage(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateLoading || c.index == 0 {
		c.mu.Unlock()
		return nil
	}

	target := c.index - 1
	if page, ok := c.pages[target]; ok {
		c.showLocked(target, page)
		c.mu.Unlock()
		return nil
	}
	return c.fetchLocked(ctx, target)
}

// Refresh fetches the current page again with the bookmark already on the stack. It is the way to
// retry after an error.
func (c *Controller[Row]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return nil
	}
	return c.fetchLocked(ctx, c.index)
}

// Close cancels a pending debounced search.
func (c *Controller[Row]) Close() {
	c.debouncer.Stop()
}

func (c *Controller[Row]) Snapshot() Snapshot[Row] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot[Row]{
		State:       c.state,
		Rows:        append([]Row(nil), c.rows...),
		PageIndex:   c.index,
		Bookmarks:   append([]Bookmark(nil), c.bookmarks...),
		HasNext:     c.state == StateLoaded && c.next != FirstPage,
		HasPrevious: c.index > 0,
		Sort:        c.sort,
		Filters:     c.effectiveFiltersLocked(),
		Search:      c.search,
		Err:         c.err,
	}
}

func (c *Controller[Row]) resetLocked() {
	c.bookmarks = []Bookmark{FirstPage}
	c.index = 0
	c.next = FirstPage
	c.pages = make(map[int]cachedPage[Row])
}

func (c *Controller[Row]) showLocked(index int, page cachedPage[Row]) {
	c.index = index
	c.rows = page.rows
	c.next = page.next
	c.err = nil
	c.state = StateLoaded
}

func (c *Controller[Row]) effectiveFiltersLocked() []Filter {
	filters := append([]Filter(nil), c.filters...)
	if c.search != "" && c.searchField != "" {
		filters = append(filters, Filter{Field: c.searchField, Operator: OpContains, Value: c.search})
	}
	return filters
}

// fetchLocked must be called with mu held; it releases mu before calling the fetcher.
func (c *Controller[Row]) fetchLocked(ctx context.Context, index int) error {
	c.generation++
	generation := c.generation
	req := FetchRequest{
		Bookmark: c.bookmarks[index],
		PageSize: c.pageSize,
		Sort:     c.sort,
		Filters:  c.effectiveFiltersLocked(),
	}
	c.index = index
	c.state = StateLoading
	c.mu.Unlock()

	logrus.Debugf("%s: fetching page %d (bookmark %q)", c.name, index, req.Bookmark)
	page, err := c.fetcher.Fetch(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		logrus.Debugf("%s: dropping stale response for page %d", c.name, index)
		return nil
	}

	if err != nil {
		c.state = StateError
		c.rows = nil
		c.next = FirstPage
		c.err = err
		return err
	}

	cached := cachedPage[Row]{rows: page.Rows, next: page.Next}
	c.pages[index] = cached
	c.showLocked(index, cached)
	return nil
}
