package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

var (
	_ list.Item = festivalItem{}
	_ list.Item = jobItem{}
	_ list.Item = reviewItem{}
)

// festivalItem wraps [models.Festival] to implement [list.Item].
type festivalItem struct {
	festival models.Festival
}

func festivalItemOf(f models.Festival) list.Item { return festivalItem{festival: f} }

func (i festivalItem) FilterValue() string { return i.festival.Name }
func (i festivalItem) Title() string {
	if i.festival.Like {
		return "♥ " + i.festival.Name
	}
	return i.festival.Name
}
func (i festivalItem) Description() string {
	desc := shared.FormatDateRange(i.festival.StartDate, i.festival.EndDate)
	if i.festival.HoldPlace != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.festival.HoldPlace)
	}
	return fmt.Sprintf("%s • %d likes", desc, i.festival.LikeCount)
}

// jobItem wraps [models.Job] to implement [list.Item].
type jobItem struct {
	job models.Job
}

func jobItemOf(j models.Job) list.Item { return jobItem{job: j} }

func (i jobItem) FilterValue() string { return i.job.Title }
func (i jobItem) Title() string       { return i.job.Title }
func (i jobItem) Description() string {
	parts := []string{fmt.Sprintf("%d applicants", i.job.ApplicantCount)}
	if i.job.HourlyPay != nil {
		parts = append([]string{strconv.Itoa(*i.job.HourlyPay) + "/h"}, parts...)
	}
	if d := models.Deref(i.job.Deadline); d != "" {
		parts = append(parts, "until "+d)
	}
	return strings.Join(parts, " • ")
}

// reviewItem wraps [models.Review] to implement [list.Item].
type reviewItem struct {
	review models.Review
}

func reviewItemOf(r models.Review) list.Item { return reviewItem{review: r} }

func (i reviewItem) FilterValue() string { return i.review.Content }
func (i reviewItem) Title() string {
	title := fmt.Sprintf("%s %s", strings.Repeat("★", i.review.Rating), i.review.FestivalName)
	if i.review.Liked {
		title = "♥ " + title
	}
	return title
}
func (i reviewItem) Description() string {
	return fmt.Sprintf("[%s] %s: %s", i.review.Type, i.review.UserName, shared.Truncate(i.review.Content, 60))
}
