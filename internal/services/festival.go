package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

// FestivalService calls the festival catalog endpoints.
type FestivalService struct {
	api *APIService
}

// NewFestivalService creates a [FestivalService] on top of api.
func NewFestivalService(api *APIService) *FestivalService {
	return &FestivalService{api: api}
}

// List returns one page of festivals. An empty page marks the end of the data.
func (s *FestivalService) List(ctx context.Context, page int) ([]models.Festival, error) {
	var items []models.Festival
	if err := s.api.call(ctx, http.MethodGet, "/app/festival/list", pageQuery(page), nil, &items); err != nil {
		return nil, err
	}
	return checkList(items)
}

// Search returns the festivals matching keyword.
func (s *FestivalService) Search(ctx context.Context, keyword string) ([]models.Festival, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: search keyword", shared.ErrMissingArgument)
	}

	var items []models.Festival
	path := "/app/festival/" + url.PathEscape(keyword) + "/search"
	if err := s.api.call(ctx, http.MethodGet, path, nil, nil, &items); err != nil {
		return nil, err
	}
	return checkList(items)
}

// Get returns a single festival by id.
func (s *FestivalService) Get(ctx context.Context, id int64) (*models.Festival, error) {
	var f models.Festival
	if err := s.api.call(ctx, http.MethodGet, fmt.Sprintf("/app/festival/%d", id), nil, nil, &f); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", shared.ErrFestivalNotFound, id)
		}
		return nil, err
	}
	if f.ID == 0 {
		f.ID = id
	}
	if err := checkOne(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ToggleLike flips the current user's like on a festival and returns the new state.
func (s *FestivalService) ToggleLike(ctx context.Context, id int64) (*models.LikeState, error) {
	var state models.LikeState
	if err := s.api.call(ctx, http.MethodPost, fmt.Sprintf("/app/festival/%d/like", id), nil, struct{}{}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
