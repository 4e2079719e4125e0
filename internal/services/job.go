package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/festa/internal/models"
	"github.com/desertthunder/festa/internal/shared"
)

// JobService calls the festival job marketplace endpoints.
type JobService struct {
	api *APIService
}

// NewJobService creates a [JobService] on top of api.
func NewJobService(api *APIService) *JobService {
	return &JobService{api: api}
}

// Urgent returns one page of jobs ordered by closest deadline.
func (s *JobService) Urgent(ctx context.Context, page int) ([]models.Job, error) {
	var items []models.Job
	if err := s.api.call(ctx, http.MethodGet, "/app/festival/job/list", pageQuery(page), nil, &items); err != nil {
		return nil, err
	}
	return checkList(items)
}

// Create posts a new job for a festival.
func (s *JobService) Create(ctx context.Context, festivalID int64, req models.JobRequest) (*models.Job, error) {
	return s.write(ctx, http.MethodPost, fmt.Sprintf("/app/festival/job/%d/create", festivalID), req)
}

// Update edits an existing job posting.
func (s *JobService) Update(ctx context.Context, jobID int64, req models.JobRequest) (*models.Job, error) {
	return s.write(ctx, http.MethodPut, fmt.Sprintf("/app/festival/job/%d", jobID), req)
}

func (s *JobService) write(ctx context.Context, method, path string, req models.JobRequest) (*models.Job, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	if req.Preference == nil {
		req.Preference = []string{}
	}

	var job models.Job
	if err := s.api.call(ctx, method, path, nil, req, &job); err != nil {
		return nil, err
	}
	if err := checkOne(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Delete removes a job posting.
func (s *JobService) Delete(ctx context.Context, jobID int64) error {
	return s.api.call(ctx, http.MethodDelete, fmt.Sprintf("/app/festival/job/%d", jobID), nil, nil, nil)
}

// Apply submits an application to a job.
func (s *JobService) Apply(ctx context.Context, jobID int64, req models.ApplyRequest) error {
	return s.apply(ctx, http.MethodPost, jobID, req)
}

// UpdateApply edits the current user's application to a job.
func (s *JobService) UpdateApply(ctx context.Context, jobID int64, req models.ApplyRequest) error {
	return s.apply(ctx, http.MethodPut, jobID, req)
}

func (s *JobService) apply(ctx context.Context, method string, jobID int64, req models.ApplyRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return s.api.call(ctx, method, fmt.Sprintf("/app/festival/job/%d/apply", jobID), nil, req, nil)
}

// CancelApply withdraws the current user's application.
func (s *JobService) CancelApply(ctx context.Context, jobID int64) error {
	return s.api.call(ctx, http.MethodDelete, fmt.Sprintf("/app/festival/job/%d/apply", jobID), nil, nil, nil)
}

// Applicants lists every application to a job.
func (s *JobService) Applicants(ctx context.Context, jobID int64) ([]models.Application, error) {
	var items []models.Application
	if err := s.api.call(ctx, http.MethodGet, fmt.Sprintf("/app/festival/job/%d/applicants", jobID), nil, nil, &items); err != nil {
		return nil, err
	}
	return checkList(items)
}

// VisibleApplicants filters the applicant list by who is asking: the employer sees everyone, an applicant
// sees only their own application and an anonymous user sees nothing.
func (s *JobService) VisibleApplicants(ctx context.Context, jobID int64, employerUID, currentUID string) ([]models.Application, error) {
	if currentUID == "" {
		return []models.Application{}, nil
	}

	list, err := s.Applicants(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if currentUID == employerUID {
		return list, nil
	}

	own := make([]models.Application, 0, 1)
	for _, a := range list {
		if a.ApplicantUID == currentUID {
			own = append(own, a)
		}
	}
	return own, nil
}

// Accept hires an applicant.
func (s *JobService) Accept(ctx context.Context, applyID int64) error {
	body := map[string]int64{"applyId": applyID}
	return s.api.call(ctx, http.MethodPost, fmt.Sprintf("/app/festival/job/apply/%d/accept", applyID), nil, body, nil)
}
