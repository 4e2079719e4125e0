package models

import (
	"fmt"
	"strings"
)

// ReviewType distinguishes reviews, tips and "let's go together" mate posts.
type ReviewType string

const (
	ReviewTypeReview ReviewType = "REVIEW"
	ReviewTypeTip    ReviewType = "TIP"
	ReviewTypeMate   ReviewType = "MATE"
)

// ParseReviewType accepts a review type case-insensitively.
func ParseReviewType(s string) (ReviewType, error) {
	switch t := ReviewType(strings.ToUpper(strings.TrimSpace(s))); t {
	case ReviewTypeReview, ReviewTypeTip, ReviewTypeMate:
		return t, nil
	default:
		return "", fmt.Errorf("%w: review type %q is not one of REVIEW, TIP, MATE", ErrValidation, s)
	}
}

// Review is a festival review with its comments.
type Review struct {
	ID           int64      `json:"id"`
	FestivalID   int64      `json:"festivalId"`
	FestivalName string     `json:"festivalName"`
	UserName     string     `json:"userName"`
	Rating       int        `json:"rating"`
	Content      string     `json:"content"`
	Type         ReviewType `json:"type"`
	LikeCount    int        `json:"likeCount"`
	Liked        bool       `json:"liked"`
	CreatedAt    string     `json:"createdAt"`
	Comments     []Comment  `json:"comments"`
}

// Check verifies a decoded review and normalizes a null comment list.
func (r *Review) Check() error {
	if r.ID == 0 {
		return fmt.Errorf("%w: review has no id", ErrValidation)
	}
	if r.Comments == nil {
		r.Comments = []Comment{}
	}
	return nil
}

// Comment is a comment on a review.
type Comment struct {
	CommentID int64  `json:"commentId"`
	ReviewID  int64  `json:"reviewId"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Check verifies a decoded comment.
func (c *Comment) Check() error {
	if c.CommentID == 0 {
		return fmt.Errorf("%w: comment has no id", ErrValidation)
	}
	return nil
}

// ReviewRequest holds the fields sent when creating or updating a review.
type ReviewRequest struct {
	Rating  int
	Content string
	Type    ReviewType
}

// Validate implements [Validator].
func (r ReviewRequest) Validate() error {
	if err := missing(map[string]string{"content": r.Content, "type": string(r.Type)}); err != nil {
		return err
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5, got %d", ErrValidation, r.Rating)
	}
	if _, err := ParseReviewType(string(r.Type)); err != nil {
		return err
	}
	return nil
}

// CommentRequest is the body used to create or update a comment.
type CommentRequest struct {
	Content string `json:"content"`
}

// Validate implements [Validator].
func (r CommentRequest) Validate() error {
	return missing(map[string]string{"content": r.Content})
}
