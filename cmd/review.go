package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
	"github.com/desertthunder/festa/internal/tasks"
)

func reviewRequest(cmd *cli.Command) (models.ReviewRequest, error) {
	kind, err := models.ParseReviewType(cmd.String("type"))
	if err != nil {
		return models.ReviewRequest{}, fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
	}
	return models.ReviewRequest{Rating: int(cmd.Int("rating")), Content: cmd.String("content"), Type: kind}, nil
}

// ReviewList lists every review, or the reviews of one festival with --festival.
func (r *Runner) ReviewList(ctx context.Context, cmd *cli.Command) error {
	r.tryRestore(ctx)

	var reviews []models.Review
	var err error
	if cmd.IsSet("festival") {
		festivalID, perr := parseID("festival", cmd.String("festival"))
		if perr != nil {
			return perr
		}
		reviews, err = r.reviews.ForFestival(ctx, festivalID)
	} else {
		reviews, err = listPages[models.Review](ctx, r, cmd, r.reviews.All)
	}
	if err != nil {
		return err
	}
	return r.render(cmd, formatter.ReviewTable(reviews))
}

// ReviewCreate reviews a festival.
func (r *Runner) ReviewCreate(ctx context.Context, cmd *cli.Command) error {
	festivalID, err := idArg(cmd, "festival-id")
	if err != nil {
		return err
	}
	req, err := reviewRequest(cmd)
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.reviews.Create(ctx, festivalID, req); err != nil {
		return err
	}
	return r.writePlainln("✓ Reviewed festival %d", festivalID)
}

// ReviewUpdate edits a review.
func (r *Runner) ReviewUpdate(ctx context.Context, cmd *cli.Command) error {
	reviewID, err := idArg(cmd, "review-id")
	if err != nil {
		return err
	}
	req, err := reviewRequest(cmd)
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.reviews.Update(ctx, reviewID, req); err != nil {
		return err
	}
	return r.writePlainln("✓ Updated review %d", reviewID)
}

// ReviewDelete deletes a review.
func (r *Runner) ReviewDelete(ctx context.Context, cmd *cli.Command) error {
	reviewID, err := idArg(cmd, "review-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.reviews.Delete(ctx, reviewID); err != nil {
		return err
	}
	return r.writePlainln("✓ Deleted review %d", reviewID)
}

// ReviewLike toggles the signed-in user's like on a review.
func (r *Runner) ReviewLike(ctx context.Context, cmd *cli.Command) error {
	reviewID, err := idArg(cmd, "review-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.reviews.ToggleLike(ctx, reviewID); err != nil {
		return err
	}
	return r.writePlainln("✓ Toggled like on review %d", reviewID)
}

// ReviewComments lists the comments on a review.
func (r *Runner) ReviewComments(ctx context.Context, cmd *cli.Command) error {
	reviewID, err := idArg(cmd, "review-id")
	if err != nil {
		return err
	}

	comments, err := r.reviews.Comments(ctx, reviewID)
	if err != nil {
		return err
	}
	t := formatter.CommentTable(comments)
	t.Title = fmt.Sprintf("Comments on review %d", reviewID)
	return r.render(cmd, t)
}

func commentContent(cmd *cli.Command) (string, error) {
	content := strings.TrimSpace(cmd.StringArg("content"))
	if content == "" {
		return "", fmt.Errorf("%w: content", shared.ErrMissingArgument)
	}
	return content, nil
}

// CommentAdd comments on a review.
func (r *Runner) CommentAdd(ctx context.Context, cmd *cli.Command) error {
	reviewID, err := idArg(cmd, "review-id")
	if err != nil {
		return err
	}
	content, err := commentContent(cmd)
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.reviews.CreateComment(ctx, reviewID, content); err != nil {
		return err
	}
	return r.writePlainln("✓ Commented on review %d", reviewID)
}

// CommentEdit edits a comment.
func (r *Runner) CommentEdit(ctx context.Context, cmd *cli.Command) error {
	commentID, err := idArg(cmd, "comment-id")
	if err != nil {
		return err
	}
	content, err := commentContent(cmd)
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.reviews.UpdateComment(ctx, commentID, content); err != nil {
		return err
	}
	return r.writePlainln("✓ Updated comment %d", commentID)
}

// CommentDelete deletes a comment.
func (r *Runner) CommentDelete(ctx context.Context, cmd *cli.Command) error {
	commentID, err := idArg(cmd, "comment-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.reviews.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	return r.writePlainln("✓ Deleted comment %d", commentID)
}

// ReviewExport writes every review, with comments, to a file.
func (r *Runner) ReviewExport(ctx context.Context, cmd *cli.Command) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:     f,
		OutputPath: cmd.String("output"),
		Workers:    r.config.Export.Workers,
		RateLimit:  r.config.Export.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.Workers = int(cmd.Int("workers"))
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}
	r.tryRestore(ctx)

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			switch u.Phase {
			case tasks.FetchComments:
				r.logger.Debug(u.Message, "step", u.Step, "total", u.Total)
			default:
				r.logger.Info(u.Message, "phase", u.Phase)
			}
		}
	}()

	result, err := tasks.NewReviewExporter(r.reviews, r.logger).Export(ctx, progress, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d reviews with %d comments to %s", len(result.Reviews), result.Comments, result.OutputPath)
	if n := len(result.Failed); n > 0 {
		r.writePlainln("⚠ Comments could not be fetched for %d reviews:", n)
		for _, failed := range result.Failed {
			r.writePlainln("  review %d: %v", failed.ReviewID, failed.Err)
		}
	}
	return nil
}
