package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playsync/internal/models"
	"github.com/desertthunder/playsync/internal/repositories"
	"github.com/desertthunder/playsync/internal/services"
	"github.com/desertthunder/playsync/internal/shared"
	"github.com/desertthunder/playsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultAuthTimeout = 2 * time.Minute

// runStore records finished legs and lists them back for `history list`.
type runStore interface {
	tasks.RunRecorder
	List(ctx context.Context, criteria repositories.RunCriteria) ([]*models.RunRecord, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Catalogs, stores and the database are built lazily from the config so that commands which
// never touch a service (pairs list, setup config) work without credentials.
type Runner struct {
	config      *shared.Config
	configPath  string
	loaded      bool
	spotify     services.Catalog
	youtube     services.Catalog
	store       repositories.CacheStore
	runs        runStore
	db          *sql.DB
	logger      *log.Logger
	output      io.Writer
	openBrowser func(url string) error
	authTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Catalog
	YouTube    services.Catalog
	Store      repositories.CacheStore
	Runs       runStore
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	loaded := opts.Config != nil
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		loaded:      loaded,
		spotify:     opts.Spotify,
		youtube:     opts.YouTube,
		store:       opts.Store,
		runs:        opts.Runs,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: shared.OpenBrowser,
		authTimeout: defaultAuthTimeout,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, cacheCommand, pairsCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before applies --verbose and loads --config unless a config was injected.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	shared.SetLogLevel(r.logger, shared.VerboseLevel(cmd.Bool("verbose")))
	if r.loaded {
		return ctx, nil
	}

	path := cmd.String("config")
	r.configPath = path
	r.loaded = true

	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		r.config = shared.DefaultConfig()
		r.config.ApplyEnv()
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.config = config
	return ctx, nil
}

// Close releases the database connection, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// catalogs returns throttled, signed-in Spotify and YouTube catalogs.
func (r *Runner) catalogs(ctx context.Context) (services.Catalog, services.Catalog, error) {
	rps := r.config.Sync.RequestsPerSecond

	if r.spotify == nil {
		svc, err := r.spotifyService()
		if err != nil {
			return nil, nil, err
		}
		if err := r.signIn(ctx, svc, r.config.Credentials.Spotify); err != nil {
			return nil, nil, err
		}
		r.spotify = services.NewThrottledCatalog(svc, rps)
	}

	if r.youtube == nil {
		svc, err := r.youtubeService()
		if err != nil {
			return nil, nil, err
		}
		if err := r.signIn(ctx, svc, r.config.Credentials.YouTube); err != nil {
			return nil, nil, err
		}
		r.youtube = services.NewThrottledCatalog(svc, rps)
	}

	return r.spotify, r.youtube, nil
}

func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	creds := r.config.Credentials.Spotify
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: set credentials.spotify client_id and client_secret", shared.ErrMissingCredentials)
	}
	return services.NewSpotifyService(creds)
}

func (r *Runner) youtubeService() (*services.YouTubeService, error) {
	creds := r.config.Credentials.YouTube
	if !creds.Configured() {
		return nil, fmt.Errorf("%w: set credentials.youtube client_id and client_secret", shared.ErrMissingCredentials)
	}
	return services.NewYouTubeService(creds)
}

// signIn installs the stored token; refreshed tokens are written back to the same file.
func (r *Runner) signIn(ctx context.Context, svc services.OAuthService, creds shared.OAuthConfig) error {
	tok, err := shared.LoadToken(creds.TokenPath)
	if err != nil {
		return fmt.Errorf("%w (run `playsync auth %s`)", err, strings.ToLower(svc.Name()))
	}
	if err := svc.Authenticate(ctx, tok, creds.TokenPath); err != nil {
		return fmt.Errorf("failed to authenticate with %s: %w", svc.Name(), err)
	}
	r.logger.Debug("signed in", "service", svc.Name(), "token", creds.TokenPath)
	return nil
}

// cacheStore returns the configured sync cache backend.
func (r *Runner) cacheStore() (repositories.CacheStore, error) {
	if r.store != nil {
		return r.store, nil
	}

	switch r.config.Sync.CacheBackend {
	case shared.CacheBackendSQLite:
		db, err := r.database(true)
		if err != nil {
			return nil, err
		}
		r.store = repositories.NewSQLiteCacheStore(db)
	default:
		r.store = repositories.NewFileCacheStore(r.config.Sync.CacheDir)
	}
	return r.store, nil
}

// runStore returns the run history. Without create, a missing database file yields nil.
func (r *Runner) runStore(create bool) (runStore, error) {
	if r.runs != nil {
		return r.runs, nil
	}
	db, err := r.database(create)
	if err != nil || db == nil {
		return nil, err
	}
	r.runs = repositories.NewRunRepository(db)
	return r.runs, nil
}

func (r *Runner) database(create bool) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	cfg := r.config.Database
	if !create && cfg.Path != ":memory:" {
		if _, err := os.Stat(shared.ExpandPath(cfg.Path)); err != nil {
			return nil, nil
		}
	}

	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	return db, nil
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
