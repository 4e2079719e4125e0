package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

const (
	loginPath   = "/app/user/login"
	profilePath = "/app/user/profile"
	refreshPath = "/app/user/refresh-token"
	signUpPath  = "/app/user/sign-up"
)

// UserService calls the account endpoints.
//
// It must be built on a client without the session transport: it is what the session manager itself
// uses to log in and refresh, and tokens are passed to it explicitly.
type UserService struct {
	api *APIService
}

// NewUserService creates a [UserService] on top of api.
func NewUserService(api *APIService) *UserService {
	return &UserService{api: api}
}

// Login exchanges credentials for a token pair.
//
// Rejections (400, 401, 403, 404) are reported as [shared.ErrInvalidCredentials] carrying the server message.
func (s *UserService) Login(ctx context.Context, id, pw string) (*models.TokenPair, error) {
	req := models.LoginRequest{ID: id, PW: pw}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)
	}

	var pair models.TokenPair
	if err := s.api.call(ctx, http.MethodPost, loginPath, nil, req, &pair); err != nil {
		switch StatusCode(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)
		}
		return nil, err
	}

	if err := checkOne(&pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Profile fetches the profile that accessToken belongs to.
func (s *UserService) Profile(ctx context.Context, accessToken string) (*models.Profile, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.api.do(ctx, http.MethodGet, profilePath, header, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, newAPIError(http.MethodGet, profilePath, resp)
	}

	var profile models.Profile
	if err := decodeJSON(resp, &profile); err != nil {
		return nil, err
	}
	if err := checkOne(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	var out models.RefreshResponse
	if err := s.api.call(ctx, http.MethodPost, refreshPath, nil, models.RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: refresh response has no access token", shared.ErrInvalidResponse)
	}
	return out.AccessToken, nil
}

// SignUp registers a new account. New accounts start unapproved.
func (s *UserService) SignUp(ctx context.Context, req models.SignUpRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return s.api.call(ctx, http.MethodPost, signUpPath, nil, req, nil)
}
