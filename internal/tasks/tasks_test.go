package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/festa/internal/pager"
)

func numbers(total, size int) pager.Source[int] {
	return func(ctx context.Context, page int) ([]int, error) {
		start := (page - 1) * size
		if start >= total {
			return []int{}, nil
		}
		end := min(start+size, total)
		out := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
}

func TestCrawl(t *testing.T) {
	t.Run("loads every page until an empty one", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)
		c := pager.New(numbers(25, 10))

		items, err := Crawl(context.Background(), c, progress)
		if err != nil {
			t.Fatalf("Crawl failed: %v", err)
		}
		if len(items) != 25 {
			t.Fatalf("expected 25 items, got %d", len(items))
		}
		for i, v := range items {
			if v != i {
				t.Fatalf("items out of order at %d: %d", i, v)
			}
		}
		if st := c.State(); st.Status != pager.Exhausted {
			t.Errorf("expected exhausted controller, got %s", st.Status)
		}

		close(progress)
		var updates int
		for u := range progress {
			if u.Phase != FetchPage {
				t.Errorf("unexpected phase %s", u.Phase)
			}
			updates++
		}
		if updates != 4 {
			t.Errorf("expected 4 page updates (3 pages + empty), got %d", updates)
		}
	})

	t.Run("returns items loaded before a failure", func(t *testing.T) {
		boom := errors.New("boom")
		good := numbers(100, 5)
		c := pager.New(func(ctx context.Context, page int) ([]int, error) {
			if page == 3 {
				return nil, boom
			}
			return good(ctx, page)
		})

		items, err := Crawl(context.Background(), c, nil)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if len(items) != 10 {
			t.Errorf("expected 10 items, got %d", len(items))
		}
	})

	t.Run("empty list", func(t *testing.T) {
		items, err := Crawl(context.Background(), pager.New(numbers(0, 10)), nil)
		if err != nil || len(items) != 0 {
			t.Errorf("expected no items and no error, got %d, %v", len(items), err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := Crawl(ctx, pager.New(numbers(10, 5)), nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	progress := make(chan ProgressUpdate)

	sendProgress(progress, fetchPageUpdate(1, 10))
	sendProgress(nil, fetchPageUpdate(1, 10))
}

func TestPhaseString(t *testing.T) {
	tc := []struct {
		phase Phase
		want  string
	}{
		{FetchPage, "fetch_page"},
		{FetchComments, "fetch_comments"},
		{WriteOutput, "write_output"},
		{Phase(99), ""},
	}
	for _, c := range tc {
		if got := c.phase.String(); got != c.want {
			t.Errorf("Phase(%d).String() = %q, want %q", c.phase, got, c.want)
		}
	}
}
