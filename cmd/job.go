package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/models"
)

func jobRequest(cmd *cli.Command) models.JobRequest {
	return models.JobRequest{
		Title:       cmd.String("title"),
		ShortDesc:   optional(cmd, "short"),
		DetailDesc:  optional(cmd, "detail"),
		HourlyPay:   optionalInt(cmd, "pay"),
		WorkTime:    optional(cmd, "time"),
		WorkPeriod:  optional(cmd, "period"),
		Preference:  cmd.StringSlice("preference"),
		IsCertified: cmd.Bool("certified"),
		Deadline:    optional(cmd, "deadline"),
	}
}

func applyRequest(cmd *cli.Command) models.ApplyRequest {
	return models.ApplyRequest{
		Name:         cmd.String("name"),
		Gender:       optional(cmd, "gender"),
		Age:          optionalInt(cmd, "age"),
		Location:     optional(cmd, "location"),
		Introduction: optional(cmd, "intro"),
		Career:       optional(cmd, "career"),
	}
}

// JobList lists urgent job postings.
func (r *Runner) JobList(ctx context.Context, cmd *cli.Command) error {
	r.tryRestore(ctx)
	jobs, err := listPages[models.Job](ctx, r, cmd, r.jobs.Urgent)
	if err != nil {
		return err
	}
	return r.render(cmd, formatter.JobTable(jobs))
}

// JobCreate posts a job for a festival.
func (r *Runner) JobCreate(ctx context.Context, cmd *cli.Command) error {
	festivalID, err := idArg(cmd, "festival-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	job, err := r.jobs.Create(ctx, festivalID, jobRequest(cmd))
	if err != nil {
		return err
	}
	return r.writePlainln("✓ Created job %d: %s", job.JobID, job.Title)
}

// JobUpdate edits a job posting.
func (r *Runner) JobUpdate(ctx context.Context, cmd *cli.Command) error {
	jobID, err := idArg(cmd, "job-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	job, err := r.jobs.Update(ctx, jobID, jobRequest(cmd))
	if err != nil {
		return err
	}
	return r.writePlainln("✓ Updated job %d: %s", job.JobID, job.Title)
}

// JobDelete deletes a job posting.
func (r *Runner) JobDelete(ctx context.Context, cmd *cli.Command) error {
	jobID, err := idArg(cmd, "job-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.jobs.Delete(ctx, jobID); err != nil {
		return err
	}
	return r.writePlainln("✓ Deleted job %d", jobID)
}

// JobApply applies to a job, or edits the existing application with --update.
func (r *Runner) JobApply(ctx context.Context, cmd *cli.Command) error {
	jobID, err := idArg(cmd, "job-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	req := applyRequest(cmd)
	if cmd.Bool("update") {
		if err := r.jobs.UpdateApply(ctx, jobID, req); err != nil {
			return err
		}
		return r.writePlainln("✓ Updated application to job %d", jobID)
	}

	if err := r.jobs.Apply(ctx, jobID, req); err != nil {
		return err
	}
	return r.writePlainln("✓ Applied to job %d", jobID)
}

// JobCancel withdraws the signed-in user's application.
func (r *Runner) JobCancel(ctx context.Context, cmd *cli.Command) error {
	jobID, err := idArg(cmd, "job-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.jobs.CancelApply(ctx, jobID); err != nil {
		return err
	}
	return r.writePlainln("✓ Withdrew application to job %d", jobID)
}

// JobApplicants lists applications to a job.
//
// With --employer the list is narrowed to what the signed-in user may see: everything for the employer,
// only their own application otherwise.
func (r *Runner) JobApplicants(ctx context.Context, cmd *cli.Command) error {
	jobID, err := idArg(cmd, "job-id")
	if err != nil {
		return err
	}
	state, err := r.requireSession(ctx)
	if err != nil {
		return err
	}

	var apps []models.Application
	if employer := cmd.String("employer"); employer != "" {
		apps, err = r.jobs.VisibleApplicants(ctx, jobID, employer, state.User.UID)
	} else {
		apps, err = r.jobs.Applicants(ctx, jobID)
	}
	if err != nil {
		return err
	}

	t := formatter.ApplicationTable(apps)
	t.Title = fmt.Sprintf("Applicants to job %d", jobID)
	return r.render(cmd, t)
}

// JobAccept hires an applicant.
func (r *Runner) JobAccept(ctx context.Context, cmd *cli.Command) error {
	applyID, err := idArg(cmd, "apply-id")
	if err != nil {
		return err
	}
	if _, err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.jobs.Accept(ctx, applyID); err != nil {
		return err
	}
	return r.writePlainln("✓ Accepted application %d", applyID)
}
