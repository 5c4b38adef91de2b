package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/sirupsen/logrus"
)

const (
	DefaultLoaderPageSize = 100
	DefaultMaxPages       = 1000
	DefaultMaxRetry       = 3
)

var ErrTooManyPages = fmt.Errorf("exceed maximum pages while loading collection%w", model.ErrRemote)

// EntitySource provides the complete collection the hierarchy resolver walks over.
type EntitySource interface {
	LoadAll(ctx context.Context) ([]model.Entity, error)
}

// Loader walks every bookmark of a ListFetcher and accumulates the rows.
type Loader struct {
	fetcher    listing.ListFetcher[model.Entity]
	pageSize   int
	maxPages   int
	maxRetry   int
	retryDelay time.Duration
}

type LoaderOption func(*Loader)

func WithLoaderPageSize(pageSize int) LoaderOption {
	return func(l *Loader) {
		if pageSize > 0 && pageSize <= listing.MaxPageSize {
			l.pageSize = pageSize
		}
	}
}

func WithMaxPages(maxPages int) LoaderOption {
	return func(l *Loader) {
		if maxPages > 0 {
			l.maxPages = maxPages
		}
	}
}

// WithMaxRetry sets the number of attempts per page. Values below 1 are ignored.
func WithMaxRetry(maxRetry int) LoaderOption {
	return func(l *Loader) {
		if maxRetry > 0 {
			l.maxRetry = maxRetry
		}
	}
}

func WithRetryDelay(delay time.Duration) LoaderOption {
	return func(l *Loader) {
		l.retryDelay = delay
	}
}

func NewLoader(fetcher listing.ListFetcher[model.Entity], opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher:    fetcher,
		pageSize:   DefaultLoaderPageSize,
		maxPages:   DefaultMaxPages,
		maxRetry:   DefaultMaxRetry,
		retryDelay: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) LoadAll(ctx context.Context) ([]model.Entity, error) {
	entities := make([]model.Entity, 0, l.pageSize)
	seen := make(map[listing.Bookmark]bool)
	bookmark := listing.FirstPage

	for pages := 0; ; pages++ {
		if pages >= l.maxPages {
			return nil, ErrTooManyPages
		}

		page, err := l.fetchPage(ctx, bookmark)
		if err != nil {
			return nil, err
		}
		entities = append(entities, page.Rows...)

		if page.Next == "" {
			break
		}
		if seen[page.Next] {
			logrus.Warnf("Loader.LoadAll(): bookmark %q repeated, stop loading", page.Next)
			break
		}
		seen[page.Next] = true
		bookmark = page.Next
	}

	logrus.Debugf("Loader.LoadAll(): loaded %d entities", len(entities))
	return entities, nil
}

func (l *Loader) fetchPage(ctx context.Context, bookmark listing.Bookmark) (listing.Page[model.Entity], error) {
	req := listing.FetchRequest{Bookmark: bookmark, PageSize: l.pageSize}

	var page listing.Page[model.Entity]
	err := retry.Do(
		func() error {
			var err error
			page, err = l.fetcher.Fetch(ctx, req)
			return err
		},
		retry.Attempts(uint(l.maxRetry)),
		retry.Context(ctx),
		retry.Delay(l.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, model.ErrInvalidParameter) && !errors.Is(err, model.ErrDataNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			logrus.Warnf("Loader.fetchPage(): attempt %d for bookmark %q failed: %v", n+1, bookmark, err)
		}),
	)

	if ctx.Err() != nil {
		return listing.Page[model.Entity]{}, ctx.Err()
	}
	if err != nil {
		return listing.Page[model.Entity]{}, err
	}
	return page, nil
}
