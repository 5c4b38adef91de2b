package listing_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/stretchr/testify/suite"
)

// fakeFetcher serves numbered rows. Bookmarks are "p<N>" and are only ever issued by the fetcher itself,
// so any other bookmark is reported as fabricated.
type fakeFetcher struct {
	mu       sync.Mutex
	total    int
	requests []listing.FetchRequest
	issued   map[string]struct{}
	failNext error
	gate     chan struct{} // When set, every Fetch blocks until it receives.
	entered  chan struct{} // When set, every Fetch signals here before blocking.
}

func newFakeFetcher(total int) *fakeFetcher {
	return &fakeFetcher{total: total, issued: map[string]struct{}{}}
}

func (f *fakeFetcher) Fetch(ctx context.Context, req listing.FetchRequest) (listing.Page[int], error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate, entered := f.gate, f.entered
	fail := f.failNext
	f.failNext = nil
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return listing.Page[int]{}, ctx.Err()
		}
	}
	if fail != nil {
		return listing.Page[int]{}, fail
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	start := 0
	if req.Bookmark != listing.FirstPage {
		if _, ok := f.issued[req.Bookmark]; !ok {
			return listing.Page[int]{}, fmt.Errorf("fabricated bookmark %q", req.Bookmark)
		}
		start, _ = strconv.Atoi(req.Bookmark[1:])
	}
	end := min(start+req.PageSize, f.total)
	rows := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, i)
	}

	next := listing.FirstPage
	if end < f.total {
		next = fmt.Sprintf("p%d", end)
		f.issued[next] = struct{}{}
	}
	return listing.Page[int]{Rows: rows, Next: next}, nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeFetcher) lastRequest() listing.FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type ControllerTestSuite struct {
	suite.Suite

	ctx        context.Context
	fetcher    *fakeFetcher
	controller *listing.Controller[int]
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}

func (s *ControllerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.fetcher = newFakeFetcher(50)
	s.controller = listing.NewController[int](
		s.fetcher,
		listing.WithPageSize(10),
		listing.WithSort(listing.SortSpec{Field: "valid_to", Direction: listing.SortDesc}),
		listing.WithSearchField("subject.common_name"),
		listing.WithSearchDebounce(20*time.Millisecond),
	)
}

func (s *ControllerTestSuite) TearDownTest() {
	s.controller.Close()
}

func (s *ControllerTestSuite) TestInitialState() {
	snapshot := s.controller.Snapshot()
	s.Assert().Equal(listing.StateIdle, snapshot.State)
	s.Assert().Equal([]listing.Bookmark{listing.FirstPage}, snapshot.Bookmarks)
	s.Assert().Equal(0, snapshot.PageIndex)
	s.Assert().False(snapshot.HasNext)
	s.Assert().Equal(0, s.fetcher.calls())
}

func (s *ControllerTestSuite) TestLoad() {
	s.Require().NoError(s.controller.Load(s.ctx))

	snapshot := s.controller.Snapshot()
	s.Assert().Equal(listing.StateLoaded, snapshot.State)
	s.Assert().Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot.Rows)
	s.Assert().True(snapshot.HasNext)
	s.Assert().False(snapshot.HasPrevious)

	req := s.fetcher.lastRequest()
	s.Assert().Equal(listing.FirstPage, req.Bookmark)
	s.Assert().Equal(10, req.PageSize)
	s.Assert().Equal(listing.SortSpec{Field: "valid_to", Direction: listing.SortDesc}, req.Sort)
}

func (s *ControllerTestSuite) TestForwardThenBackReplaysWithoutFetching() {
	s.Require().NoError(s.controller.Load(s.ctx))
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.controller.NextPage(s.ctx))
	}
	snapshot := s.controller.Snapshot()
	s.Assert().Equal(3, snapshot.PageIndex)
	s.Assert().Equal([]int{30, 31, 32, 33, 34, 35, 36, 37, 38, 39}, snapshot.Rows)
	s.Assert().Equal([]listing.Bookmark{listing.FirstPage, "p10", "p20", "p30"}, snapshot.Bookmarks)
	s.Require().Equal(4, s.fetcher.calls())

	for i := 0; i < 3; i++ {
		s.Require().NoError(s.controller.PreviousPage(s.ctx))
	}
	snapshot = s.controller.Snapshot()
	s.Assert().Equal(0, snapshot.PageIndex)
	s.Assert().Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot.Rows)
	// Going back never mutates the stack.
	s.Assert().Equal([]listing.Bookmark{listing.FirstPage, "p10", "p20", "p30"}, snapshot.Bookmarks)
	s.Assert().Equal(4, s.fetcher.calls())

	// Going forward again reuses the bookmarks and pages already seen.
	s.Require().NoError(s.controller.NextPage(s.ctx))
	s.Require().NoError(s.controller.NextPage(s.ctx))
	snapshot = s.controller.Snapshot()
	s.Assert().Equal(2, snapshot.PageIndex)
	s.Assert().Equal(20, snapshot.Rows[0])
	s.Assert().Equal(4, s.fetcher.calls())
	s.Assert().Len(snapshot.Bookmarks, 4)
}

func (s *ControllerTestSuite) TestNextPageStopsAtLastPage() {
	s.Require().NoError(s.controller.Load(s.ctx))
	for i := 0; i < 10; i++ {
		s.Require().NoError(s.controller.NextPage(s.ctx))
	}
	snapshot := s.controller.Snapshot()
	s.Assert().Equal(4, snapshot.PageIndex)
	s.Assert().False(snapshot.HasNext)
	s.Assert().Equal(5, s.fetcher.calls())
	s.Assert().Len(snapshot.Bookmarks, 5)
}

func (s *ControllerTestSuite) TestPreviousPageAtFirstPageIsNoop() {
	s.Require().NoError(s.controller.Load(s.ctx))
	s.Require().NoError(s.controller.PreviousPage(s.ctx))
	s.Assert().Equal(0, s.controller.Snapshot().PageIndex)
	s.Assert().Equal(1, s.fetcher.calls())
}

func (s *ControllerTestSuite) TestFilterChangeResets() {
	s.Require().NoError(s.controller.Load(s.ctx))
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.controller.NextPage(s.ctx))
	}
	s.Require().Equal(3, s.controller.Snapshot().PageIndex)

	filter := listing.Filter{Field: "status", Operator: listing.OpEqual, Value: "ACTIVE"}
	s.Require().NoError(s.controller.SetFilters(s.ctx, filter))

	snapshot := s.controller.Snapshot()
	s.Assert().Equal(0, snapshot.PageIndex)
	s.Assert().Equal([]listing.Bookmark{listing.FirstPage}, snapshot.Bookmarks)
	s.Assert().Equal([]listing.Filter{filter}, snapshot.Filters)

	req := s.fetcher.lastRequest()
	s.Assert().Equal(listing.FirstPage, req.Bookmark)
	s.Assert().Equal([]listing.Filter{filter}, req.Filters)

	// The old cache is gone: moving forward fetches again.
	calls := s.fetcher.calls()
	s.Require().NoError(s.controller.NextPage(s.ctx))
	s.Assert().Equal(calls+1, s.fetcher.calls())

	// Same filters again is not a change.
	calls = s.fetcher.calls()
	s.Require().NoError(s.controller.SetFilters(s.ctx, filter))
	s.Assert().Equal(calls, s.fetcher.calls())
	s.Assert().Equal(1, s.controller.Snapshot().PageIndex)
}

func (s *ControllerTestSuite) TestSortAndPageSizeChangesReset() {
	s.Require().NoError(s.controller.Load(s.ctx))
	s.Require().NoError(s.controller.NextPage(s.ctx))

	sort := listing.SortSpec{Field: "serial_number", Direction: listing.SortAsc}
	s.Require().NoError(s.controller.SetSort(s.ctx, sort))
	s.Assert().Equal(0, s.controller.Snapshot().PageIndex)
	s.Assert().Equal(sort, s.fetcher.lastRequest().Sort)

	s.Require().NoError(s.controller.NextPage(s.ctx))
	s.Require().NoError(s.controller.SetPageSize(s.ctx, 20))
	snapshot := s.controller.Snapshot()
	s.Assert().Equal(0, snapshot.PageIndex)
	s.Assert().Len(snapshot.Rows, 20)
	s.Assert().Equal([]listing.Bookmark{listing.FirstPage}, snapshot.Bookmarks)
}

func (s *ControllerTestSuite) TestInvalidParameters() {
	err := s.controller.SetPageSize(s.ctx, 0)
	s.Assert().ErrorIs(err, model.ErrInvalidParameter)

	err = s.controller.SetSort(s.ctx, listing.SortSpec{Field: "x", Direction: "sideways"})
	s.Assert().ErrorIs(err, model.ErrInvalidParameter)

	err = s.controller.SetFilters(s.ctx, listing.Filter{Field: "status", Operator: "like", Value: "x"})
	s.Assert().ErrorIs(err, model.ErrInvalidParameter)

	s.Assert().Equal(0, s.fetcher.calls())
}

func (s *ControllerTestSuite) TestFetchFailureKeepsPosition() {
	s.Require().NoError(s.controller.Load(s.ctx))
	s.Require().NoError(s.controller.NextPage(s.ctx))

	failure := errors.New("upstream returned 502")
	s.fetcher.failNext = failure
	err := s.controller.NextPage(s.ctx)
	s.Require().ErrorIs(err, failure)

	snapshot := s.controller.Snapshot()
	s.Assert().Equal(listing.StateError, snapshot.State)
	s.Assert().Empty(snapshot.Rows)
	s.Assert().Equal("upstream returned 502", snapshot.Err.Error())
	s.Assert().Equal(2, snapshot.PageIndex)
	s.Assert().Equal([]listing.Bookmark{listing.FirstPage, "p10", "p20"}, snapshot.Bookmarks)
	s.Assert().False(snapshot.HasNext)

	// Not retried automatically, and moving forward is impossible from an error.
	calls := s.fetcher.calls()
	s.Require().NoError(s.controller.NextPage(s.ctx))
	s.Assert().Equal(calls, s.fetcher.calls())

	s.Require().NoError(s.controller.Refresh(s.ctx))
	snapshot = s.controller.Snapshot()
	s.Assert().Equal(listing.StateLoaded, snapshot.State)
	s.Assert().Nil(snapshot.Err)
	s.Assert().Equal(20, snapshot.Rows[0])
	s.Assert().Equal("p20", s.fetcher.lastRequest().Bookmark)
}

func (s *ControllerTestSuite) TestRefreshKeepsStack() {
	s.Require().NoError(s.controller.Load(s.ctx))
	s.Require().NoError(s.controller.NextPage(s.ctx))
	before := s.controller.Snapshot().Bookmarks

	s.Require().NoError(s.controller.Refresh(s.ctx))
	s.Assert().Equal(before, s.controller.Snapshot().Bookmarks)
	s.Assert().Equal("p10", s.fetcher.lastRequest().Bookmark)
	s.Assert().Equal(3, s.fetcher.calls())
}

func (s *ControllerTestSuite) TestOnlyIssuedBookmarksAreSent() {
	s.Require().NoError(s.controller.Load(s.ctx))
	for i := 0; i < 4; i++ {
		s.Require().NoError(s.controller.NextPage(s.ctx))
	}
	s.Require().NoError(s.controller.Refresh(s.ctx))
	s.Assert().Equal(listing.StateLoaded, s.controller.Snapshot().State)
}

func (s *ControllerTestSuite) TestNextPageIgnoredWhileLoading() {
	s.Require().NoError(s.controller.Load(s.ctx))

	s.fetcher.gate = make(chan struct{})
	s.fetcher.entered = make(chan struct{}, 1)

	done := make(chan error, 1)
	go func() {
		done <- s.controller.NextPage(s.ctx)
	}()
	<-s.fetcher.entered

	s.Assert().Equal(listing.StateLoading, s.controller.Snapshot().State)
	s.Require().NoError(s.controller.NextPage(s.ctx))
	s.Require().NoError(s.controller.PreviousPage(s.ctx))
	s.Require().NoError(s.controller.Refresh(s.ctx))

	close(s.fetcher.gate)
	s.Require().NoError(<-done)

	s.Assert().Equal(2, s.fetcher.calls())
	snapshot := s.controller.Snapshot()
	s.Assert().Equal(1, snapshot.PageIndex)
	s.Assert().Equal(10, snapshot.Rows[0])
}

func (s *ControllerTestSuite) TestStaleResponseIsDropped() {
	s.Require().NoError(s.controller.Load(s.ctx))

	gate := make(chan struct{})
	s.fetcher.gate = gate
	s.fetcher.entered = make(chan struct{}, 2)

	slow := make(chan error, 1)
	go func() {
		slow <- s.controller.NextPage(s.ctx)
	}()
	<-s.fetcher.entered

	filter := listing.Filter{Field: "status", Operator: listing.OpEqual, Value: "REVOKED"}
	fresh := make(chan error, 1)
	go func() {
		fresh <- s.controller.SetFilters(s.ctx, filter)
	}()
	<-s.fetcher.entered

	// Both fetches are released; the first one to complete may be either.
	close(gate)
	s.Require().NoError(<-slow)
	s.Require().NoError(<-fresh)

	snapshot := s.controller.Snapshot()
	s.Assert().Equal(listing.StateLoaded, snapshot.State)
	s.Assert().Equal(0, snapshot.PageIndex)
	s.Assert().Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, snapshot.Rows)
	s.Assert().Equal([]listing.Bookmark{listing.FirstPage}, snapshot.Bookmarks)
	s.Assert().Equal([]listing.Filter{filter}, snapshot.Filters)
}

func (s *ControllerTestSuite) TestSearchIsDebounced() {
	s.Require().NoError(s.controller.Load(s.ctx))
	s.Require().NoError(s.controller.NextPage(s.ctx))
	calls := s.fetcher.calls()

	for _, term := range []string{"d", "de", "dev", "devi", "device"} {
		s.controller.SetSearch(s.ctx, term)
	}

	s.Require().Eventually(func() bool {
		return s.controller.Snapshot().Search == "device"
	}, time.Second, 5*time.Millisecond)
	s.Require().Eventually(func() bool {
		return s.controller.Snapshot().State == listing.StateLoaded
	}, time.Second, 5*time.Millisecond)

	s.Assert().Equal(calls+1, s.fetcher.calls())
	req := s.fetcher.lastRequest()
	s.Assert().Equal(listing.FirstPage, req.Bookmark)
	s.Assert().Equal([]listing.Filter{{Field: "subject.common_name", Operator: listing.OpContains, Value: "device"}}, req.Filters)
	s.Assert().Equal(0, s.controller.Snapshot().PageIndex)
}

func (s *ControllerTestSuite) TestSearchAppliedCallback() {
	applied := make(chan string, 1)
	controller := listing.NewController[int](
		s.fetcher,
		listing.WithPageSize(10),
		listing.WithSearchField("subject.common_name"),
		listing.WithSearchDebounce(5*time.Millisecond),
		listing.WithOnSearchApplied(func(term string, err error) {
			s.Assert().NoError(err)
			applied <- term
		}),
	)
	defer controller.Close()
	s.Require().NoError(controller.Load(s.ctx))

	controller.SetSearch(s.ctx, "dev")
	select {
	case term := <-applied:
		s.Assert().Equal("dev", term)
	case <-time.After(time.Second):
		s.FailNow("search was not applied")
	}

	snapshot := controller.Snapshot()
	s.Assert().Equal(listing.StateLoaded, snapshot.State)
	s.Assert().Equal("dev", snapshot.Search)
}

func (s *ControllerTestSuite) TestCloseCancelsPendingSearch() {
	s.Require().NoError(s.controller.Load(s.ctx))
	s.controller.SetSearch(s.ctx, "never")
	s.controller.Close()

	time.Sleep(60 * time.Millisecond)
	s.Assert().Equal("", s.controller.Snapshot().Search)
	s.Assert().Equal(1, s.fetcher.calls())
}
