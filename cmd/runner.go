package main

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/faves/internal/repositories"
	"github.com/desertthunder/faves/internal/services"
	"github.com/desertthunder/faves/internal/shared"
	"github.com/desertthunder/faves/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	api    *services.APIService
	tokens tasks.TokenStore
	db     *sql.DB
	logger *log.Logger
	output io.Writer
	prompt io.Writer
	input  *bufio.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	API    *services.APIService
	Tokens tasks.TokenStore // opened from Config.Database on first use when nil
	Logger *log.Logger
	Output io.Writer
	Prompt io.Writer // where interactive prompts go, defaults to stderr
	Input  io.Reader
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
	if opts.Prompt == nil {
		opts.Prompt = os.Stderr
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(
			opts.Config.API.BaseURL, nil, services.WithRateLimit(opts.Config.API.RequestsPerSecond),
		)
	}

	return &Runner{
		config: opts.Config,
		api:    opts.API,
		tokens: opts.Tokens,
		logger: opts.Logger,
		output: opts.Output,
		prompt: opts.Prompt,
		input:  bufio.NewReader(opts.Input),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, registerCommand, logoutCommand, whoamiCommand,
		productsCommand, favoritesCommand, apiCommand, tuiCommand, devserverCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// tokenStore returns the durable token store, opening the database on first use.
func (r *Runner) tokenStore() (tasks.TokenStore, error) {
	if r.tokens != nil {
		return r.tokens, nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	r.logger.Debug("opened token store", "path", r.config.Database.Path)

	r.db = db
	r.tokens = repositories.NewTokenRepository(db)
	return r.tokens, nil
}

// controller builds a [tasks.Controller] over the API and the durable token store.
func (r *Runner) controller() (*tasks.Controller, error) {
	tokens, err := r.tokenStore()
	if err != nil {
		return nil, err
	}
	return tasks.NewController(r.api, tokens, r.logger), nil
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
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
