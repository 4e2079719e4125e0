package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
	th "github.com/desertthunder/festa/internal/testing"
)

type stubReviews struct {
	reviews  []models.Review
	pageSize int
	failOn   map[int64]error
	listErr  error

	mu       sync.Mutex
	calls    map[int64]int
	active   atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	pageHits atomic.Int32
}

func newStubReviews(n int) *stubReviews {
	s := &stubReviews{pageSize: 3, failOn: map[int64]error{}, calls: map[int64]int{}}
	for i := 1; i <= n; i++ {
		s.reviews = append(s.reviews, models.Review{
			ID: int64(i), FestivalName: fmt.Sprintf("Festival %d", i), Rating: 1 + i%5,
			Type: models.ReviewTypeReview, UserName: "alice", Content: fmt.Sprintf("review %d", i),
		})
	}
	return s
}

func (s *stubReviews) All(ctx context.Context, page int) ([]models.Review, error) {
	s.pageHits.Add(1)
	if s.listErr != nil {
		return nil, s.listErr
	}
	start := (page - 1) * s.pageSize
	if start >= len(s.reviews) {
		return []models.Review{}, nil
	}
	end := min(start+s.pageSize, len(s.reviews))
	return append([]models.Review(nil), s.reviews[start:end]...), nil
}

func (s *stubReviews) Comments(ctx context.Context, id int64) ([]models.Comment, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.calls[id]++
	s.mu.Unlock()

	if err := s.failOn[id]; err != nil {
		return nil, err
	}
	out := make([]models.Comment, int(id%3))
	for i := range out {
		out[i] = models.Comment{CommentID: id*10 + int64(i), ReviewID: id, Content: "nice"}
	}
	return out, nil
}

func TestReviewExporter(t *testing.T) {
	t.Run("exports every review with comments", func(t *testing.T) {
		src := newStubReviews(7)
		path := filepath.Join(t.TempDir(), "reviews.json")

		res, err := NewReviewExporter(src, nil).Export(context.Background(), nil, ExportOpts{
			Format: formatter.JSON, OutputPath: path, RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if len(res.Reviews) != 7 {
			t.Fatalf("expected 7 reviews, got %d", len(res.Reviews))
		}
		// ids 1..7 have id%3 comments: 1+2+0+1+2+0+1
		if res.Comments != 7 {
			t.Errorf("expected 7 comments, got %d", res.Comments)
		}
		if len(res.Failed) != 0 {
			t.Errorf("expected no failures, got %v", res.Failed)
		}
		if res.OutputPath != path {
			t.Errorf("expected %s, got %s", path, res.OutputPath)
		}

		var decoded []models.Review
		if err := json.Unmarshal([]byte(th.MustReadFile(t, path)), &decoded); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(decoded) != 7 || len(decoded[1].Comments) != 2 {
			t.Errorf("unexpected decoded output: %+v", decoded)
		}
		for id, n := range src.calls {
			if n != 1 {
				t.Errorf("review %d comments fetched %d times", id, n)
			}
		}
	})

	t.Run("records comment failures without stopping", func(t *testing.T) {
		src := newStubReviews(5)
		src.failOn[2] = errors.New("gone")
		src.failOn[4] = errors.New("timeout")
		progress := make(chan ProgressUpdate, 50)

		res, err := NewReviewExporter(src, nil).Export(context.Background(), progress, ExportOpts{
			Format: formatter.CSV, OutputPath: filepath.Join(t.TempDir(), "reviews.csv"), RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if len(res.Failed) != 2 {
			t.Fatalf("expected 2 failures, got %v", res.Failed)
		}
		failed := map[int64]bool{}
		for _, f := range res.Failed {
			failed[f.ReviewID] = true
		}
		if !failed[2] || !failed[4] {
			t.Errorf("unexpected failures %v", res.Failed)
		}
		if len(res.Reviews) != 5 {
			t.Errorf("expected every review kept, got %d", len(res.Reviews))
		}

		close(progress)
		var failures, writes int
		for u := range progress {
			if u.Phase == FetchComments && strings.Contains(u.Message, "✗") {
				failures++
			}
			if u.Phase == WriteOutput {
				writes++
			}
		}
		if failures != 2 || writes != 1 {
			t.Errorf("expected 2 failure updates and 1 write update, got %d and %d", failures, writes)
		}
	})

	t.Run("worker count bounds concurrency", func(t *testing.T) {
		src := newStubReviews(12)
		src.delay = 20 * time.Millisecond

		_, err := NewReviewExporter(src, nil).Export(context.Background(), nil, ExportOpts{
			Format: formatter.Text, OutputPath: filepath.Join(t.TempDir(), "r.txt"), Workers: 2, RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if peak := src.peak.Load(); peak > 2 {
			t.Errorf("expected at most 2 concurrent fetches, saw %d", peak)
		}
	})

	t.Run("rate limit spaces requests", func(t *testing.T) {
		src := newStubReviews(4)
		start := time.Now()

		_, err := NewReviewExporter(src, nil).Export(context.Background(), nil, ExportOpts{
			Format: formatter.Text, OutputPath: filepath.Join(t.TempDir(), "r.txt"), Workers: 4, RateLimit: 20,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		// burst of 1 then 3 more at 50ms intervals
		if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
			t.Errorf("expected rate limiting to take at least 100ms, took %s", elapsed)
		}
	})

	t.Run("list failure aborts", func(t *testing.T) {
		src := newStubReviews(3)
		src.listErr = shared.ErrNetwork

		_, err := NewReviewExporter(src, nil).Export(context.Background(), nil, ExportOpts{OutputPath: filepath.Join(t.TempDir(), "r.txt")})
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("no reviews still writes output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.md")
		res, err := NewReviewExporter(newStubReviews(0), nil).Export(context.Background(), nil, ExportOpts{
			Format: formatter.Markdown, OutputPath: path,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if len(res.Reviews) != 0 {
			t.Errorf("expected no reviews, got %d", len(res.Reviews))
		}
		th.AssertFileExists(t, path)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewReviewExporter(newStubReviews(3), nil).Export(ctx, nil, ExportOpts{OutputPath: filepath.Join(t.TempDir(), "r.txt")})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("service not initialized", func(t *testing.T) {
		_, err := NewReviewExporter(nil, nil).Export(context.Background(), nil, ExportOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("invalid output path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := NewReviewExporter(newStubReviews(1), nil).Export(context.Background(), nil, ExportOpts{
			OutputPath: filepath.Join(blocker, "out.txt"), RateLimit: 1000,
		})
		if err == nil {
			t.Error("expected error writing beneath a regular file")
		}
	})
}

func TestExportOpts(t *testing.T) {
	now := time.Unix(1700000000, 0)

	tc := []struct {
		name string
		in   ExportOpts
		want ExportOpts
	}{
		{"defaults", ExportOpts{}, ExportOpts{Format: formatter.Text, OutputPath: "reviews_export_1700000000.txt", Workers: 4, RateLimit: 5}},
		{"caps workers", ExportOpts{Format: formatter.Markdown, Workers: 50, RateLimit: 2}, ExportOpts{Format: formatter.Markdown, OutputPath: "reviews_export_1700000000.md", Workers: 10, RateLimit: 2}},
		{"keeps explicit values", ExportOpts{Format: formatter.CSV, OutputPath: "x.csv", Workers: 3, RateLimit: 1}, ExportOpts{Format: formatter.CSV, OutputPath: "x.csv", Workers: 3, RateLimit: 1}},
	}
	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			if got := c.in.normalize(now); got != c.want {
				t.Errorf("normalize() = %+v, want %+v", got, c.want)
			}
		})
	}
}
