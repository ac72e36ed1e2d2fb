package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/classify/internal/repositories"
	"github.com/desertthunder/classify/internal/server"
	"github.com/desertthunder/classify/internal/services"
	"github.com/desertthunder/classify/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Upstream clients and the database are built on first use from the loaded config.
type Runner struct {
	config     *shared.Config
	configPath string
	deps       *server.Deps
	db         *sql.DB
	cache      *repositories.TagCacheRepository
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A non-nil Deps skips building upstream clients from config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Deps       *server.Deps
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		deps:       opts.Deps,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, cacheCommand, routesCommand, describeCommand, tagsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load reads the config file named by --config (defaults when it does not exist),
// applies the .env file and environment overrides, and sets the log level.
//
// A config passed through [RunnerOpts] is kept as-is.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config != nil {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	config := shared.DefaultConfig()
	if _, err := os.Stat(r.configPath); err == nil {
		if config, err = shared.LoadConfig(r.configPath); err != nil {
			return ctx, err
		}
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := config.ApplyEnv(cmd.String("env-file")); err != nil {
		return ctx, err
	}
	if err := shared.SetLogLevel(r.logger, config.LogLevel); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}

	r.config = config
	return ctx, nil
}

// Close releases the database handle if one was opened.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.cache = nil, nil
	return err
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// database opens the configured database once. It returns nil when no path is configured.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.cfg().Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

// tagCache returns the repository over the configured database, or nil without one.
func (r *Runner) tagCache() (*repositories.TagCacheRepository, error) {
	if r.cache != nil {
		return r.cache, nil
	}
	db, err := r.database()
	if err != nil || db == nil {
		return nil, err
	}
	ttl := time.Duration(r.cfg().Database.TagTTLHours) * time.Hour
	r.cache = repositories.NewTagCacheRepository(db, ttl)
	return r.cache, nil
}

// services returns the upstream clients, building them on first use.
func (r *Runner) services() server.Deps {
	if r.deps != nil {
		return *r.deps
	}

	var cache services.TagCache
	if repo, err := r.tagCache(); err != nil {
		r.logger.Warn("tag cache disabled", "error", err)
	} else if repo != nil {
		cache = repo
	}

	deps := buildDeps(r.cfg(), r.httpClient, cache, r.logger)
	r.deps = &deps
	return deps
}

// buildDeps creates every upstream client the config has credentials for.
// Missing credentials leave the matching field nil.
func buildDeps(cfg *shared.Config, client *http.Client, cache services.TagCache, logger *log.Logger) server.Deps {
	deps := server.Deps{
		Catalog: services.NewSpotifyService(cfg.Credentials.Spotify.APIURL, client),
	}

	if tokens, err := services.NewTokenService(cfg.Credentials.Spotify, client); err == nil {
		deps.Tokens = tokens
	} else {
		logger.Debug("spotify token exchange disabled", "error", err)
	}

	if openai, err := services.NewOpenAIService(cfg.Credentials.OpenAI, client); err == nil {
		deps.Describer = openai
	} else {
		logger.Debug("openai disabled", "error", err)
	}

	opts := []services.LastFMOption{services.WithLastFMLogger(shared.WithLogger(logger, "service", "lastfm"))}
	if cache != nil {
		opts = append(opts, services.WithTagCache(cache))
	}
	if lastfm, err := services.NewLastFMService(cfg.Credentials.LastFM, client, opts...); err == nil {
		deps.Tagger = lastfm
	} else {
		logger.Debug("last.fm disabled", "error", err)
	}

	var api *services.APIService
	if cfg.Clustering.URL != "" {
		timeout := time.Duration(cfg.Clustering.TimeoutSeconds) * time.Second
		api = services.NewAPIService(cfg.Clustering.URL, &http.Client{Timeout: timeout, Transport: client.Transport})
	}
	deps.Clusterer = services.NewClusteringService(api, cfg.Clustering.DefaultK)

	return deps
}

// requireConfigured reports a missing upstream as [shared.ErrMissingCredentials].
func requireConfigured(ok bool, name string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s is not configured", shared.ErrMissingCredentials, name)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

func (r *Runner) writePlainln(text string) error {
	return r.writePlain("%s\n", text)
}
