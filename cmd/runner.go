package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/festa/internal/formatter"
	"github.com/desertthunder/festa/internal/repositories"
	"github.com/desertthunder/festa/internal/services"
	"github.com/desertthunder/festa/internal/session"
	"github.com/desertthunder/festa/internal/shared"
)

const loginHint = "run 'festa auth login' to sign in"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily by [Runner.wire] so that commands like setup work without a reachable API.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client
	db         *sql.DB
	store      session.Store
	clipboard  func(string) error
	browser    func(string) error
	ownsDB     bool

	session   *session.Manager
	api       *services.APIService
	users     *services.UserService
	festivals *services.FestivalService
	jobs      *services.JobService
	reviews   *services.ReviewService
	maps      *services.MapLinks
	recent    *repositories.RecentFestivalRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // loaded from --config when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB       // opened from the config when nil
	Store      session.Store // defaults to a token store on DB
	Clipboard  func(string) error
	Browser    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		store:      opts.Store,
		clipboard:  opts.Clipboard,
		browser:    opts.Browser,
	}
}

// app builds the root command. A fresh tree is built for every run.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:      "festa",
		Usage:     "Browse festivals, jobs and reviews from the terminal",
		Version:   "0.3.0",
		Writer:    r.output,
		ErrWriter: r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep the session in memory only, nothing is written to the token store",
			},
		},
		Before:   r.prepare,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, festivalCommand, jobCommand, reviewCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// prepare loads the configuration and sets the log level.
func (r *Runner) prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		config := shared.DefaultConfig()
		path := cmd.String("config")
		if _, err := os.Stat(path); err == nil {
			if config, err = shared.LoadConfig(path); err != nil {
				return ctx, err
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
		config.ApplyEnv()
		r.config = config
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// wire builds the session and the API services. It is idempotent.
func (r *Runner) wire(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.session != nil {
		return ctx, nil
	}
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return ctx, fmt.Errorf("%w: %w", shared.ErrStorage, err)
		}
		r.db, r.ownsDB = db, true
	}
	switch {
	case r.store != nil:
	case cmd.Bool("ephemeral"):
		r.store = session.NewMemoryStore("", "")
	default:
		r.store = repositories.NewTokenStore(r.db)
	}
	r.recent = repositories.NewRecentFestivalRepository(r.db)

	base, timeout := r.httpClient.Transport, r.config.API.Timeout()
	ua := r.config.API.UserAgent

	// Auth calls carry their own tokens and bypass the refreshing transport.
	plain := &http.Client{Transport: base, Timeout: timeout}
	r.users = services.NewUserService(services.NewAPIService(r.config.API.BaseURL, plain).WithUserAgent(ua))

	m, err := session.New(ctx, session.Options{Auth: r.users, Store: r.store, Logger: r.logger})
	if err != nil {
		return ctx, err
	}
	m.OnExpired(func() { r.logger.Warn("session expired, " + loginHint) })

	tr, err := session.NewTransport(m, r.config.API.BaseURL, base)
	if err != nil {
		return ctx, err
	}
	authed := tr.Client()
	authed.Timeout = timeout

	r.session = m
	r.api = services.NewAPIService(r.config.API.BaseURL, authed).WithUserAgent(ua)
	r.festivals = services.NewFestivalService(r.api)
	r.jobs = services.NewJobService(r.api)
	r.reviews = services.NewReviewService(r.api)
	r.maps = services.NewMapLinks(r.config.Maps)
	return ctx, nil
}

// Close releases the database when the runner opened it.
func (r *Runner) Close() error {
	if r.ownsDB && r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// requireSession restores the stored session and fails unless it is authenticated.
func (r *Runner) requireSession(ctx context.Context) (session.State, error) {
	if err := r.session.Initialize(ctx); err != nil {
		r.logger.Debug("session restore failed", "error", err)
		if errors.Is(err, shared.ErrProfileFetch) {
			return session.State{}, fmt.Errorf("%w: %w, %s", shared.ErrNotAuthenticated, err, loginHint)
		}
		return session.State{}, err
	}
	state := r.session.Snapshot()
	if !state.Authenticated {
		return state, fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, loginHint)
	}
	return state, nil
}

// tryRestore restores the stored session when there is one, logging instead of failing.
func (r *Runner) tryRestore(ctx context.Context) session.State {
	if err := r.session.Initialize(ctx); err != nil {
		r.logger.Debug("session restore failed", "error", err)
	}
	return r.session.Snapshot()
}

func (r *Runner) render(cmd *cli.Command, t formatter.Table) error {
	f, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	return formatter.Render(r.output, f, t)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// idArg parses the named positional argument as a numeric id.
func idArg(cmd *cli.Command, name string) (int64, error) {
	return parseID(name, cmd.StringArg(name))
}

func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// optional returns a pointer to the flag's value when it was set on the command line.
func optional(cmd *cli.Command, name string) *string {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.String(name)
	return &v
}

func optionalInt(cmd *cli.Command, name string) *int {
	if !cmd.IsSet(name) {
		return nil
	}
	v := int(cmd.Int(name))
	return &v
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, csv, markdown, txt",
		Value:   string(formatter.Text),
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "page",
			Aliases: []string{"p"},
			Usage:   "Page to fetch, starting at 1",
			Value:   1,
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Fetch every page",
		},
		formatFlag(),
	}
}
