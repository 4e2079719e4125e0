package models

import (
	"fmt"
	"time"
)

// ApplyStatus is the state of an application to a job.
type ApplyStatus string

const (
	StatusApplied  ApplyStatus = "APPLIED"
	StatusAccepted ApplyStatus = "ACCEPTED"
	StatusRejected ApplyStatus = "REJECTED"
	StatusNone     ApplyStatus = "NONE"
)

// Job is a short-term festival job posting.
type Job struct {
	JobID          int64       `json:"jobId"`
	FestivalID     int64       `json:"festivalId"`
	EmployerUID    string      `json:"employerUid"`
	Title          string      `json:"title"`
	ShortDesc      *string     `json:"shortDesc"`
	DetailDesc     *string     `json:"detailDesc"`
	HourlyPay      *int        `json:"hourlyPay"`
	WorkTime       *string     `json:"workTime"`
	WorkPeriod     *string     `json:"workPeriod"`
	Preference     []string    `json:"preference"`
	IsCertified    bool        `json:"isCertified"`
	IsOpen         bool        `json:"isOpen"`
	Status         ApplyStatus `json:"status"`
	Deadline       *string     `json:"deadline"`
	ApplicantCount int         `json:"applicantCount"`
	HiredCount     int         `json:"hiredCount"`
	AlreadyApplied *bool       `json:"alreadyApplied"`
	CreatedAt      *string     `json:"createdAt"`
	UpdatedAt      *string     `json:"updatedAt"`
}

// Check verifies a decoded job and normalizes optional collections.
func (j *Job) Check() error {
	if j.JobID == 0 {
		return fmt.Errorf("%w: job has no id", ErrValidation)
	}
	if j.Title == "" {
		return fmt.Errorf("%w: job %d has no title", ErrValidation, j.JobID)
	}
	if j.Preference == nil {
		j.Preference = []string{}
	}
	if j.Status == "" {
		j.Status = StatusNone
	}
	return nil
}

// Applied reports whether the current user already applied.
func (j *Job) Applied() bool {
	return j.AlreadyApplied != nil && *j.AlreadyApplied
}

// OwnedBy reports whether uid posted the job.
func (j *Job) OwnedBy(uid string) bool {
	return uid != "" && uid == j.EmployerUID
}

// JobRequest is the body used to create or update a job posting.
type JobRequest struct {
	Title       string   `json:"title"`
	ShortDesc   *string  `json:"shortDesc,omitempty"`
	DetailDesc  *string  `json:"detailDesc,omitempty"`
	HourlyPay   *int     `json:"hourlyPay,omitempty"`
	WorkTime    *string  `json:"workTime,omitempty"`
	WorkPeriod  *string  `json:"workPeriod,omitempty"`
	Preference  []string `json:"preference"`
	IsCertified bool     `json:"isCertified"`
	Deadline    *string  `json:"deadline,omitempty"` // YYYY-MM-DD
}

// Validate implements [Validator].
func (r JobRequest) Validate() error {
	if err := missing(map[string]string{"title": r.Title}); err != nil {
		return err
	}
	if r.HourlyPay != nil && *r.HourlyPay < 0 {
		return fmt.Errorf("%w: hourly pay must not be negative", ErrValidation)
	}
	if r.Deadline != nil && *r.Deadline != "" {
		if _, err := time.Parse(time.DateOnly, *r.Deadline); err != nil {
			return fmt.Errorf("%w: deadline %q is not YYYY-MM-DD", ErrValidation, *r.Deadline)
		}
	}
	return nil
}

// ApplyRequest is the body used to apply to a job or edit an application.
type ApplyRequest struct {
	Name         string  `json:"name"`
	Gender       *string `json:"gender,omitempty"`
	Age          *int    `json:"age,omitempty"`
	Location     *string `json:"location,omitempty"`
	Introduction *string `json:"introduction,omitempty"`
	Career       *string `json:"career,omitempty"`
}

// Validate implements [Validator].
func (r ApplyRequest) Validate() error {
	return missing(map[string]string{"name": r.Name})
}

// Application is one applicant's submission to a job.
type Application struct {
	ApplyID      int64       `json:"applyId"`
	JobID        int64       `json:"jobId"`
	ApplicantUID string      `json:"applicantUid"`
	Name         *string     `json:"name"`
	Gender       *string     `json:"gender"`
	Age          *int        `json:"age"`
	Location     *string     `json:"location"`
	Introduction *string     `json:"introduction"`
	Career       *string     `json:"career"`
	Status       ApplyStatus `json:"status"`
	IsRead       bool        `json:"isRead"`
	CreatedAt    *string     `json:"createdAt"`
	UpdatedAt    *string     `json:"updatedAt"`
}

// Check verifies a decoded application.
func (a *Application) Check() error {
	if a.ApplyID == 0 {
		return fmt.Errorf("%w: application has no id", ErrValidation)
	}
	return nil
}

// Deref returns the value of an optional string field, or "" when it is unset.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
