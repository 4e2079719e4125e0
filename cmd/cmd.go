// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func idArgs(names ...string) []cli.Argument {
	args := make([]cli.Argument, 0, len(names))
	for _, name := range names {
		args = append(args, &cli.StringArg{Name: name})
	}
	return args
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Sign in, sign out and inspect the session",
		Before: r.wire,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with an id and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Aliases:  []string{"u"},
						Usage:    "Account id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "pw",
						Usage:    "Account password",
						Sources:  cli.EnvVars("FESTA_PASSWORD"),
						Required: true,
					},
				},
				Action: r.Login,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget stored tokens",
				Action: r.Logout,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in user",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.Status,
			},
			{
				Name:  "signup",
				Usage: "Create an account. New accounts must be approved before they can sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Account id", Required: true},
					&cli.StringFlag{Name: "pw", Usage: "Account password", Sources: cli.EnvVars("FESTA_PASSWORD"), Required: true},
					&cli.StringFlag{Name: "email", Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
					&cli.BoolFlag{Name: "accept-terms", Usage: "Accept the terms of service and privacy policy"},
					&cli.BoolFlag{Name: "alerts", Usage: "Opt in to alerts"},
				},
				Action: r.SignUp,
			},
		},
	}
}

// festivalCommand handles festival browsing
func festivalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "festival",
		Aliases: []string{"fest"},
		Usage:   "Browse festivals",
		Before:  r.wire,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List festivals",
				Flags:  pageFlags(),
				Action: r.FestivalList,
			},
			{
				Name:      "search",
				Usage:     "Search festivals by keyword",
				Arguments: []cli.Argument{&cli.StringArg{Name: "keyword"}},
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.FestivalSearch,
			},
			{
				Name:      "show",
				Usage:     "Show a festival and remember it as recently viewed",
				Arguments: idArgs("id"),
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.FestivalShow,
			},
			{
				Name:      "like",
				Usage:     "Toggle your like on a festival",
				Arguments: idArgs("id"),
				Action:    r.FestivalLike,
			},
			{
				Name:      "share",
				Usage:     "Copy a festival's share link to the clipboard",
				Arguments: idArgs("id"),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-copy", Usage: "Print the link without copying it"},
				},
				Action: r.FestivalShare,
			},
			{
				Name:      "map",
				Usage:     "Print a map link for a festival",
				Arguments: idArgs("id"),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "static", Usage: "Static map image (needs maps.google_maps_key)"},
					&cli.BoolFlag{Name: "directions", Usage: "Directions link"},
					&cli.BoolFlag{Name: "open", Usage: "Open the link in a browser"},
				},
				Action: r.FestivalMap,
			},
			{
				Name:  "recent",
				Usage: "List recently viewed festivals",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Forget recently viewed festivals"},
					formatFlag(),
				},
				Action: r.FestivalRecent,
			},
		},
	}
}

func jobFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Job title", Required: true},
		&cli.StringFlag{Name: "short", Usage: "Short description"},
		&cli.StringFlag{Name: "detail", Usage: "Detailed description"},
		&cli.IntFlag{Name: "pay", Usage: "Hourly pay"},
		&cli.StringFlag{Name: "time", Usage: "Working hours"},
		&cli.StringFlag{Name: "period", Usage: "Working period"},
		&cli.StringSliceFlag{Name: "preference", Usage: "Preferred applicant traits (repeatable)"},
		&cli.BoolFlag{Name: "certified", Usage: "Certification required"},
		&cli.StringFlag{Name: "deadline", Usage: "Application deadline (YYYY-MM-DD)"},
	}
}

func applyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Applicant name", Required: true},
		&cli.StringFlag{Name: "gender", Usage: "Gender"},
		&cli.IntFlag{Name: "age", Usage: "Age"},
		&cli.StringFlag{Name: "location", Usage: "Location"},
		&cli.StringFlag{Name: "intro", Usage: "Introduction"},
		&cli.StringFlag{Name: "career", Usage: "Career summary"},
		&cli.BoolFlag{Name: "update", Usage: "Edit an existing application instead of applying"},
	}
}

// jobCommand handles job postings and applications
func jobCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "job",
		Usage:  "Browse and manage festival jobs",
		Before: r.wire,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List urgent job postings",
				Flags:  pageFlags(),
				Action: r.JobList,
			},
			{
				Name:      "create",
				Usage:     "Post a job for a festival",
				Arguments: idArgs("festival-id"),
				Flags:     jobFlags(),
				Action:    r.JobCreate,
			},
			{
				Name:      "update",
				Usage:     "Edit a job posting",
				Arguments: idArgs("job-id"),
				Flags:     jobFlags(),
				Action:    r.JobUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a job posting",
				Arguments: idArgs("job-id"),
				Action:    r.JobDelete,
			},
			{
				Name:      "apply",
				Usage:     "Apply to a job",
				Arguments: idArgs("job-id"),
				Flags:     applyFlags(),
				Action:    r.JobApply,
			},
			{
				Name:      "cancel",
				Usage:     "Withdraw your application",
				Arguments: idArgs("job-id"),
				Action:    r.JobCancel,
			},
			{
				Name:      "applicants",
				Usage:     "List applications to a job",
				Arguments: idArgs("job-id"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "employer", Usage: "Employer uid of the job, hides other applicants from non-owners"},
					formatFlag(),
				},
				Action: r.JobApplicants,
			},
			{
				Name:      "accept",
				Usage:     "Accept an application",
				Arguments: idArgs("apply-id"),
				Action:    r.JobAccept,
			},
		},
	}
}

func reviewFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "rating", Aliases: []string{"r"}, Usage: "Rating from 1 to 5", Required: true},
		&cli.StringFlag{Name: "content", Aliases: []string{"m"}, Usage: "Review text", Required: true},
		&cli.StringFlag{Name: "type", Usage: "REVIEW, TIP or MATE", Value: "REVIEW"},
	}
}

// reviewCommand handles reviews and their comments
func reviewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "review",
		Usage:  "Read and write festival reviews",
		Before: r.wire,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List reviews",
				Flags: append(pageFlags(),
					&cli.StringFlag{Name: "festival", Usage: "Only reviews of this festival id"},
				),
				Action: r.ReviewList,
			},
			{
				Name:      "create",
				Usage:     "Review a festival",
				Arguments: idArgs("festival-id"),
				Flags:     reviewFlags(),
				Action:    r.ReviewCreate,
			},
			{
				Name:      "update",
				Usage:     "Edit a review",
				Arguments: idArgs("review-id"),
				Flags:     reviewFlags(),
				Action:    r.ReviewUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a review",
				Arguments: idArgs("review-id"),
				Action:    r.ReviewDelete,
			},
			{
				Name:      "like",
				Usage:     "Toggle your like on a review",
				Arguments: idArgs("review-id"),
				Action:    r.ReviewLike,
			},
			{
				Name:      "comments",
				Usage:     "List comments on a review",
				Arguments: idArgs("review-id"),
				Flags:     []cli.Flag{formatFlag()},
				Action:    r.ReviewComments,
			},
			{
				Name:  "comment",
				Usage: "Write, edit or delete comments",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Comment on a review",
						Arguments: []cli.Argument{&cli.StringArg{Name: "review-id"}, &cli.StringArg{Name: "content"}},
						Action:    r.CommentAdd,
					},
					{
						Name:      "edit",
						Usage:     "Edit a comment",
						Arguments: []cli.Argument{&cli.StringArg{Name: "comment-id"}, &cli.StringArg{Name: "content"}},
						Action:    r.CommentEdit,
					},
					{
						Name:      "delete",
						Usage:     "Delete a comment",
						Arguments: idArgs("comment-id"),
						Action:    r.CommentDelete,
					},
				},
			},
			{
				Name:  "export",
				Usage: "Export every review with its comments to a file",
				Flags: []cli.Flag{
					formatFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent comment fetches"},
					&cli.FloatFlag{Name: "rate", Usage: "Comment requests per second"},
				},
				Action: r.ReviewExport,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "api",
		Usage:  "Direct calls to the festival API",
		Before: r.wire,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON", Value: true},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a config file and initialize the local database",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "rollback", Usage: "Roll back the latest migration instead"},
		},
		Action: r.Setup,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive interface",
		Before: r.tuiBefore,
		Action: r.TUI,
	}
}
