package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/festa/internal/pager"
)

// MaxPages bounds a crawl against a server that never returns an empty page.
const MaxPages = 500

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Crawl loads pages through c until the list is exhausted and returns every item merged. c must not be
// driven by anything else while the crawl runs.
//
// A page error ends the crawl; the items loaded before it are returned along with the error.
func Crawl[T any](ctx context.Context, c *pager.Controller[T], progress chan<- ProgressUpdate) ([]T, error) {
	for range MaxPages {
		if err := ctx.Err(); err != nil {
			return c.State().Items, err
		}

		issued, err := c.Trigger(ctx)
		st := c.State()
		if err != nil {
			return st.Items, fmt.Errorf("failed to load page %d: %w", st.Page, err)
		}
		if !issued {
			return st.Items, nil
		}
		sendProgress(progress, fetchPageUpdate(st.Page, len(st.Items)))
	}
	return c.State().Items, fmt.Errorf("crawl stopped after %d pages", MaxPages)
}
