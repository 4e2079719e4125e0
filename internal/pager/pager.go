package pager

import (
	"context"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Source fetches one page of items. Pages start at 1; an empty result means there is no more data.
type Source[T any] func(ctx context.Context, page int) ([]T, error)

// Status summarizes a [Controller] for display.
type Status int

const (
	Idle Status = iota
	Fetching
	Exhausted
	Failed
)

func (s Status) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a copy of the controller state.
type Snapshot[T any] struct {
	Items    []T
	Page     int
	HasMore  bool
	Fetching bool
	Status   Status
	Err      error // last fetch error while Failed
}

// Controller accumulates the pages of a [Source].
//
// Fetches never overlap: a load requested while another is in flight is dropped. Exhausted and Failed
// are terminal until [Controller.Reset].
type Controller[T any] struct {
	source   Source[T]
	logger   *log.Logger
	inFlight atomic.Bool

	mu       sync.Mutex
	items    []T
	page     int
	fetched  int // last page merged, 0 before the first load
	hasMore  bool
	fetching bool
	err      error
	gen      uint64
	closed   bool
}

// New creates a [Controller] positioned at page 1.
func New[T any](source Source[T]) *Controller[T] {
	return &Controller[T]{
		source:  source,
		logger:  log.New(io.Discard),
		items:   []T{},
		page:    1,
		hasMore: true,
	}
}

// WithLogger sets the logger used to report dropped and discarded loads.
func (c *Controller[T]) WithLogger(l *log.Logger) *Controller[T] {
	c.logger = l
	return c
}

// LoadNext fetches the current page and merges it. It does nothing while a load is in flight, after the
// list is exhausted or failed, or once the controller is closed. A fetch error is returned for logging and
// stops further loads.
func (c *Controller[T]) LoadNext(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		c.logger.Debug("load dropped, fetch in flight")
		return nil
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	if c.closed || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.run(ctx)
}

// Trigger is the proximity signal. When no load is in flight and more data exists it advances to the next
// page, or stays on the current page if that was never fetched, and loads it. It reports whether a request
// was issued.
func (c *Controller[T]) Trigger(ctx context.Context) (bool, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return false, nil
	}
	defer c.inFlight.Store(false)

	c.mu.Lock()
	if c.closed || !c.hasMore {
		c.mu.Unlock()
		return false, nil
	}
	if c.fetched >= c.page {
		c.page++
	}
	c.mu.Unlock()

	return true, c.run(ctx)
}

// run performs one fetch. The caller holds the in-flight claim.
func (c *Controller[T]) run(ctx context.Context) error {
	c.mu.Lock()
	page, gen := c.page, c.gen
	c.fetching = true
	c.mu.Unlock()

	items, err := c.source(ctx, page)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false

	if c.closed || c.gen != gen {
		c.logger.Debug("discarding stale page", "page", page, "closed", c.closed)
		return nil
	}

	switch {
	case err != nil:
		c.hasMore = false
		c.err = err
		return err
	case len(items) == 0:
		c.hasMore = false
	case page == 1:
		c.items = slices.Clone(items)
	default:
		c.items = append(c.items, items...)
	}
	c.fetched = page
	return nil
}

// Reset returns to page 1 with an empty list and more data expected. It does not fetch. A load that
// started before the reset is discarded when it completes.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.items = []T{}
	c.page = 1
	c.fetched = 0
	c.hasMore = true
	c.err = nil
}

// Close detaches the controller from its view. Results arriving afterwards are discarded.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
}

// State returns a snapshot of the controller.
func (c *Controller[T]) State() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot[T]{
		Items:    slices.Clone(c.items),
		Page:     c.page,
		HasMore:  c.hasMore,
		Fetching: c.fetching,
		Err:      c.err,
	}
	switch {
	case c.fetching:
		s.Status = Fetching
	case c.err != nil:
		s.Status = Failed
	case !c.hasMore:
		s.Status = Exhausted
	default:
		s.Status = Idle
	}
	return s
}

// Len is the number of items loaded so far.
func (c *Controller[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sentinel reports when a cursor is close enough to the end of a list to request the next page.
type Sentinel struct {
	Margin int // rows before the last one at which the next page is requested
}

// Near reports whether cursor is within Margin rows of the end of a list of total rows. An empty list
// is always near.
func (s Sentinel) Near(cursor, total int) bool {
	if total <= 0 {
		return true
	}
	return cursor >= total-1-max(s.Margin, 0)
}
