package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/festa/internal/pager"
)

// feed is the type-erased view of a [pager.Controller] that a tab renders.
type feed interface {
	LoadNext(ctx context.Context) error
	Trigger(ctx context.Context) (bool, error)
	Reset()
	Close()
	view() feedView
}

type feedView struct {
	items   []list.Item
	page    int
	hasMore bool
	status  pager.Status
	err     error
}

type pagedFeed[T any] struct {
	*pager.Controller[T]
	item func(T) list.Item
}

func newFeed[T any](source pager.Source[T], item func(T) list.Item, logger *log.Logger) *pagedFeed[T] {
	return &pagedFeed[T]{Controller: pager.New(source).WithLogger(logger), item: item}
}

func (f *pagedFeed[T]) view() feedView {
	st := f.State()
	items := make([]list.Item, len(st.Items))
	for i, v := range st.Items {
		items[i] = f.item(v)
	}
	return feedView{items: items, page: st.Page, hasMore: st.HasMore, status: st.Status, err: st.Err}
}
