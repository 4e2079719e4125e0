package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/pager"
	"github.com/desertthunder/festa/internal/shared"
)

const (
	DefaultWorkers   = 4
	MaxWorkers       = 10
	DefaultRateLimit = 5.0
)

// ReviewSource lists reviews page by page and fetches their comments. [services.ReviewService] implements it.
type ReviewSource interface {
	All(ctx context.Context, page int) ([]models.Review, error)
	Comments(ctx context.Context, reviewID int64) ([]models.Comment, error)
}

// ExportOpts configures [ReviewExporter.Export].
type ExportOpts struct {
	Format     formatter.Format // default txt
	OutputPath string           // default reviews_export_{epoch}{ext}
	Workers    int              // concurrent comment fetches, default 4, at most 10
	RateLimit  float64          // comment requests per second, default 5
}

func (o ExportOpts) normalize(now time.Time) ExportOpts {
	if o.Format == "" {
		o.Format = formatter.Text
	}
	if o.OutputPath == "" {
		o.OutputPath = fmt.Sprintf("reviews_export_%d%s", now.Unix(), o.Format.Ext())
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	o.Workers = min(o.Workers, MaxWorkers)
	if o.RateLimit <= 0 {
		o.RateLimit = DefaultRateLimit
	}
	return o
}

// ReviewFailure records a review whose comments could not be fetched.
type ReviewFailure struct {
	ReviewID int64
	Err      error
}

// ExportResult summarizes an export.
type ExportResult struct {
	Reviews    []models.Review
	Comments   int
	Failed     []ReviewFailure
	OutputPath string
}

// ReviewExporter writes every review, with its comments, to a file.
type ReviewExporter struct {
	source ReviewSource
	logger *log.Logger
}

// NewReviewExporter creates a [ReviewExporter]. A nil logger discards output.
func NewReviewExporter(source ReviewSource, logger *log.Logger) *ReviewExporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ReviewExporter{source: source, logger: logger.WithPrefix("export")}
}

type commentJob struct {
	index int
	id    int64
}

type commentResult struct {
	index    int
	comments []models.Comment
	err      error
}

// Export crawls every review page, fetches each review's comments on a rate limited worker pool and writes the
// result in opts.Format. Comment failures are collected in [ExportResult.Failed].
func (e *ReviewExporter) Export(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: review service not initialized", shared.ErrServiceUnavailable)
	}
	opts = opts.normalize(time.Now())

	ctrl := pager.New[models.Review](e.source.All).WithLogger(e.logger)
	defer ctrl.Close()

	reviews, err := Crawl(ctx, ctrl, progress)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Reviews: reviews, Failed: []ReviewFailure{}}
	e.logger.Info("reviews loaded", "count", len(reviews), "workers", opts.Workers)

	if err := e.fetchComments(ctx, progress, result, opts); err != nil {
		return result, err
	}

	sendProgress(progress, writeOutputUpdate(opts.OutputPath))
	path, err := formatter.WriteFile(opts.OutputPath, opts.Format, formatter.ReviewTable(result.Reviews))
	if err != nil {
		return result, fmt.Errorf("export completed but failed to write output: %w", err)
	}
	result.OutputPath = path
	return result, nil
}

func (e *ReviewExporter) fetchComments(ctx context.Context, progress chan<- ProgressUpdate, result *ExportResult, opts ExportOpts) error {
	total := len(result.Reviews)
	if total == 0 {
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan commentJob, total)
	results := make(chan commentResult, total)

	var wg sync.WaitGroup
	for range min(opts.Workers, total) {
		wg.Add(1)
		go e.commentWorker(ctx, &wg, limiter, jobs, results)
	}

	for i, r := range result.Reviews {
		jobs <- commentJob{index: i, id: r.ID}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		review := &result.Reviews[res.index]
		if res.err != nil {
			result.Failed = append(result.Failed, ReviewFailure{ReviewID: review.ID, Err: res.err})
			e.logger.Warn("comments fetch failed", "review", review.ID, "err", res.err)
		} else {
			review.Comments = res.comments
			result.Comments += len(res.comments)
		}
		sendProgress(progress, commentsUpdate(completed, total, review.ID, res.err))
	}

	return ctx.Err()
}

// commentWorker fetches comments for each job until the jobs channel closes or ctx is cancelled.
func (e *ReviewExporter) commentWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan commentJob,
	results chan<- commentResult,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		comments, err := e.source.Comments(ctx, job.id)
		if comments == nil {
			comments = []models.Comment{}
		}
		results <- commentResult{index: job.index, comments: comments, err: err}
	}
}
