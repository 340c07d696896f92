package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mplusd/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config means each command loads its own from the --config flag.
type RunnerOpts struct {
	Config     *shared.Config
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
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){serveCommand, tokenCommand, initCommand} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for a command: the runner's own config if set,
// else the --config file if it exists, else defaults. Command-line flags override both.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	var config *shared.Config
	switch {
	case r.config != nil:
		c := *r.config
		config = &c
	default:
		path := cmd.String("config")
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			r.logger.Debug("loaded config", "path", path)
			config = loaded
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
			config = shared.DefaultConfig()
		}
	}

	if cmd.IsSet("port") {
		config.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("dir") {
		config.Server.StaticDir = cmd.String("dir")
	}
	if cmd.IsSet("env-file") {
		config.Env.File = cmd.String("env-file")
	}
	if cmd.Bool("debug") {
		config.Log.Level = "debug"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		r.logger.Warn("unknown log level, keeping current", "level", config.Log.Level)
	}
	return config, nil
}

// loadEnv merges the configured env file into the process environment.
func (r *Runner) loadEnv(config *shared.Config) error {
	if config.Env.File == "" {
		return nil
	}

	applied, err := shared.LoadEnvFile(config.Env.File)
	if err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	if len(applied) > 0 {
		r.logger.Info("loaded env file", "path", config.Env.File, "keys", applied)
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
