package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/pager"
	"github.com/desertthunder/festa/internal/shared"
	"github.com/desertthunder/festa/internal/tasks"
)

// listPages fetches the page named by --page, or every page with --all.
func listPages[T any](ctx context.Context, r *Runner, cmd *cli.Command, source pager.Source[T]) ([]T, error) {
	if !cmd.Bool("all") {
		page := int(cmd.Int("page"))
		if page < 1 {
			return nil, fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidFlag)
		}
		return source(ctx, page)
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step)
		}
	}()

	c := pager.New(source).WithLogger(r.logger)
	defer c.Close()
	items, err := tasks.Crawl(ctx, c, progress)
	close(progress)
	<-done
	return items, err
}

// FestivalList lists festivals page by page.
func (r *Runner) FestivalList(ctx context.Context, cmd *cli.Command) error {
	r.tryRestore(ctx)
	festivals, err := listPages[models.Festival](ctx, r, cmd, r.festivals.List)
	if err != nil {
		return err
	}
	return r.render(cmd, formatter.FestivalTable(festivals))
}

// FestivalSearch searches festivals by keyword.
func (r *Runner) FestivalSearch(ctx context.Context, cmd *cli.Command) error {
	keyword := strings.TrimSpace(cmd.StringArg("keyword"))
	if keyword == "" {
		return fmt.Errorf("%w: keyword", shared.ErrMissingArgument)
	}

	r.logger.Info("searching festivals", "keyword", keyword)
	festivals, err := r.festivals.Search(ctx, keyword)
	if err != nil {
		return err
	}
	t := formatter.FestivalTable(festivals)
	t.Title = fmt.Sprintf("Festivals matching %q", keyword)
	return r.render(cmd, t)
}

// FestivalShow prints one festival and records it as recently viewed.
func (r *Runner) FestivalShow(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	r.tryRestore(ctx)

	festival, err := r.festivals.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.recent.Record(ctx, festival.Summary()); err != nil {
		r.logger.Warn("failed to record recent festival", "id", id, "error", err)
	}
	return r.render(cmd, formatter.FestivalDetail(festival))
}

// FestivalLike toggles the signed-in user's like on a festival.
func (r *Runner) FestivalLike(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	state, err := r.festivals.ToggleLike(ctx, id)
	if err != nil {
		return err
	}
	if state.Like {
		return r.writePlainln("♥ Liked festival %d (%d likes)", id, state.LikeCount)
	}
	return r.writePlainln("♡ Unliked festival %d (%d likes)", id, state.LikeCount)
}

// FestivalShare prints a festival's share link and copies it to the clipboard.
func (r *Runner) FestivalShare(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	link := r.maps.Share(id)
	if !cmd.Bool("no-copy") {
		if err := r.clipboard(link); err != nil {
			r.logger.Warn("failed to copy link to clipboard", "error", err)
		} else {
			r.writePlainln("✓ Copied to clipboard")
		}
	}
	return r.writePlainln("%s", link)
}

// FestivalMap prints a search, static or directions map link for a festival.
func (r *Runner) FestivalMap(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if cmd.Bool("static") && cmd.Bool("directions") {
		return fmt.Errorf("%w: --static and --directions are mutually exclusive", shared.ErrInvalidFlag)
	}

	festival, err := r.festivals.Get(ctx, id)
	if err != nil {
		return err
	}

	var link string
	switch {
	case cmd.Bool("static"):
		link, err = r.maps.Static(festival)
	case cmd.Bool("directions"):
		link, err = r.maps.Directions(festival)
	default:
		link, err = r.maps.Search(festival)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		if err := r.browser(link); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}
	return r.writePlainln("%s", link)
}

// FestivalRecent lists or clears recently viewed festivals.
func (r *Runner) FestivalRecent(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("clear") {
		if err := r.recent.Clear(ctx); err != nil {
			return err
		}
		return r.writePlainln("✓ Cleared recently viewed festivals")
	}

	recent, err := r.recent.List(ctx)
	if err != nil {
		return err
	}
	return r.render(cmd, formatter.RecentTable(recent))
}
