package listing

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/openebl/pkiconsole/pkg/console/model"
)

// Bookmark is an opaque cursor issued by the server. FirstPage is the only bookmark the controller ever
// makes up.
type Bookmark = string

const FirstPage Bookmark = ""

type FetchRequest struct {
	Bookmark Bookmark `json:"bookmark"`
	PageSize int      `json:"page_size"`
	Sort     SortSpec `json:"sort"`
	Filters  []Filter `json:"filters"`
}

// Page is one page returned by a ListFetcher. An empty Next means there are no further pages.
type Page[Row any] struct {
	Rows []Row    `json:"rows"`
	Next Bookmark `json:"next"`
}

// ListFetcher performs one network call per page.
type ListFetcher[Row any] interface {
	Fetch(ctx context.Context, req FetchRequest) (Page[Row], error)
}

// FetcherFunc adapts a function to ListFetcher.
type FetcherFunc[Row any] func(ctx context.Context, req FetchRequest) (Page[Row], error)

func (f FetcherFunc[Row]) Fetch(ctx context.Context, req FetchRequest) (Page[Row], error) {
	return f(ctx, req)
}

func ValidateFetchRequest(req FetchRequest) error {
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.PageSize, validation.Required, validation.Min(1), validation.Max(MaxPageSize)),
	); err != nil {
		return fmt.Errorf("%s%w", err.Error(), model.ErrInvalidParameter)
	}
	if err := ValidateSortSpec(req.Sort); err != nil {
		return err
	}
	for _, f := range req.Filters {
		if err := ValidateFilter(f); err != nil {
			return err
		}
	}
	return nil
}
