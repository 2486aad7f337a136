package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"medialog/internal/models"
	"medialog/internal/repositories"
	"medialog/internal/services"
	"medialog/internal/shared"
	"medialog/internal/store"
	"medialog/internal/tasks"
)

// localUserID identifies the implicit owner when no identity provider is
// configured and records live in the local sqlite database.
const localUserID = "local"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	docs       services.DocumentStore
	auth       *services.AuthService
	db         *sql.DB
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Documents  services.DocumentStore
	Auth       *services.AuthService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		docs:       opts.Documents,
		auth:       opts.Auth,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, libraryCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// authConfigured reports whether an OIDC identity provider is set up.
func (r *Runner) authConfigured() bool {
	return r.config.Auth.Issuer != ""
}

// authService lazily constructs the OIDC auth service.
func (r *Runner) authService(ctx context.Context) (*services.AuthService, error) {
	if r.auth != nil {
		return r.auth, nil
	}
	if !r.authConfigured() {
		return nil, fmt.Errorf("%w: no identity provider configured", shared.ErrMissingConfig)
	}

	auth, err := services.NewAuthService(ctx, r.config, r.logger)
	if err != nil {
		return nil, err
	}
	r.auth = auth
	return auth, nil
}

// documents lazily constructs the document store for the configured backend.
func (r *Runner) documents(ctx context.Context) (services.DocumentStore, error) {
	if r.docs != nil {
		return r.docs, nil
	}

	switch r.config.Store.Backend {
	case "http":
		var tokens oauth2.TokenSource
		if r.authConfigured() {
			auth, err := r.authService(ctx)
			if err != nil {
				return nil, err
			}
			source, err := auth.TokenSource(ctx)
			if err != nil {
				return nil, err
			}
			tokens = source
		}
		r.docs = services.NewHTTPDocumentStore(r.config.Store.BaseURL, r.httpClient, tokens)

	case "sqlite", "":
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
		r.docs = repositories.NewMediaRepository(db)

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", shared.ErrInvalidConfig, r.config.Store.Backend)
	}

	return r.docs, nil
}

// session resolves the current session: a restored sign-in when an identity
// provider is configured, the implicit local owner otherwise.
func (r *Runner) session(ctx context.Context) (models.Session, error) {
	if !r.authConfigured() {
		return models.Session{UserID: localUserID}, nil
	}

	auth, err := r.authService(ctx)
	if err != nil {
		return models.Session{}, err
	}
	return auth.Resume(ctx)
}

// openStore builds a media store bound to the current session with the
// collection loaded, for single-command CLI use.
func (r *Runner) openStore(ctx context.Context) (*store.MediaStore, error) {
	docs, err := r.documents(ctx)
	if err != nil {
		return nil, err
	}

	session, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	s := store.New(docs, r.config.Store.Collection, r.logger)
	s.OnRemoteError(func(event store.RemoteErrorEvent) {
		r.logger.Warn("save failed, change kept locally", "op", event.Op, "id", event.ID, "error", event.Err)
	})

	if _, err := s.Load(ctx, session); err != nil {
		return nil, err
	}
	return s, nil
}

// engine builds a LibraryEngine over an opened store.
func (r *Runner) engine(ctx context.Context) (*tasks.LibraryEngine, *store.MediaStore, error) {
	s, err := r.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tasks.NewLibraryEngine(s), s, nil
}

// drainProgress prints progress messages until the channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for update := range progress {
		r.writePlain("%s\n", update.Message)
	}
	close(done)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
