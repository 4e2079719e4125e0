package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

// ReviewService calls the review and comment endpoints.
type ReviewService struct {
	api *APIService
}

// NewReviewService creates a [ReviewService] on top of api.
func NewReviewService(api *APIService) *ReviewService {
	return &ReviewService{api: api}
}

// All returns one page of reviews across every festival.
func (s *ReviewService) All(ctx context.Context, page int) ([]models.Review, error) {
	return s.list(ctx, "/app/festival/reviews", pageQuery(page))
}

// ForFestival returns the reviews of one festival.
func (s *ReviewService) ForFestival(ctx context.Context, festivalID int64) ([]models.Review, error) {
	return s.list(ctx, fmt.Sprintf("/app/festival/%d/reviews", festivalID), nil)
}

func (s *ReviewService) list(ctx context.Context, path string, query url.Values) ([]models.Review, error) {
	var items []models.Review
	if err := s.api.call(ctx, http.MethodGet, path, query, nil, &items); err != nil {
		return nil, err
	}
	return checkList(items)
}

// Create writes a review. The API takes the fields as query parameters with an empty body.
func (s *ReviewService) Create(ctx context.Context, festivalID int64, req models.ReviewRequest) error {
	return s.write(ctx, http.MethodPost, fmt.Sprintf("/app/festival/%d/reviews", festivalID), req)
}

// Update edits a review.
func (s *ReviewService) Update(ctx context.Context, reviewID int64, req models.ReviewRequest) error {
	return s.write(ctx, http.MethodPut, fmt.Sprintf("/app/festival/reviews/%d", reviewID), req)
}

func (s *ReviewService) write(ctx context.Context, method, path string, req models.ReviewRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	query := url.Values{
		"rating":  []string{strconv.Itoa(req.Rating)},
		"content": []string{req.Content},
		"type":    []string{string(req.Type)},
	}
	return s.api.call(ctx, method, path, query, nil, nil)
}

// Delete removes a review.
func (s *ReviewService) Delete(ctx context.Context, reviewID int64) error {
	return s.api.call(ctx, http.MethodDelete, fmt.Sprintf("/app/festival/reviews/%d", reviewID), nil, nil, nil)
}

// ToggleLike flips the current user's like on a review.
func (s *ReviewService) ToggleLike(ctx context.Context, reviewID int64) error {
	return s.api.call(ctx, http.MethodPost, fmt.Sprintf("/app/festival/reviews/%d/like", reviewID), nil, nil, nil)
}

// Comments lists the comments on a review.
func (s *ReviewService) Comments(ctx context.Context, reviewID int64) ([]models.Comment, error) {
	var items []models.Comment
	if err := s.api.call(ctx, http.MethodGet, fmt.Sprintf("/app/festival/reviews/%d/comments", reviewID), nil, nil, &items); err != nil {
		return nil, err
	}
	return checkList(items)
}

// CreateComment adds a comment to a review.
func (s *ReviewService) CreateComment(ctx context.Context, reviewID int64, content string) error {
	return s.comment(ctx, http.MethodPost, fmt.Sprintf("/app/festival/reviews/%d/comments", reviewID), content)
}

// UpdateComment edits a comment.
func (s *ReviewService) UpdateComment(ctx context.Context, commentID int64, content string) error {
	return s.comment(ctx, http.MethodPut, fmt.Sprintf("/app/festival/review-comments/%d", commentID), content)
}

func (s *ReviewService) comment(ctx context.Context, method, path, content string) error {
	req := models.CommentRequest{Content: content}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return s.api.call(ctx, method, path, nil, req, nil)
}

// DeleteComment removes a comment.
func (s *ReviewService) DeleteComment(ctx context.Context, commentID int64) error {
	return s.api.call(ctx, http.MethodDelete, fmt.Sprintf("/app/festival/review-comments/%d", commentID), nil, nil, nil)
}
