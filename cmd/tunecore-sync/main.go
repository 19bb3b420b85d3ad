// Command tunecore-sync copies the TuneCore community catalog into a document
// store and searches it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/tunecore-collector/internal/config"
	"github.com/Sternrassler/tunecore-collector/pkg/logging"
	"github.com/alecthomas/kong"
	"github.com/mattn/go-isatty"
)

// CLI represents the complete command structure for tunecore-sync
type CLI struct {
	// Global flags
	EnvFile  string `help:"Path to a .env file loaded before reading the environment" default:".env" type:"path"`
	Backend  string `help:"Override STORE_BACKEND (mongo, redis, memory)"`
	LogLevel string `help:"Override LOG_LEVEL (debug, info, warn, error)"`

	Collect CollectCmd `cmd:"" help:"Fetch the whole catalog and upsert it into the store"`
	List    ListCmd    `cmd:"" help:"List stored songs ordered by id"`
	Purge   PurgeCmd   `cmd:"" help:"Delete every stored song"`
	Search  SearchCmd  `cmd:"" help:"Search the catalog by keyword"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run parses args, loads configuration and executes the selected command.
// It returns the process exit code.
func run(args []string, stdin io.Reader, stdout io.Writer) int {
	var cli CLI

	parser, err := kong.New(&cli,
		kong.Name("tunecore-sync"),
		kong.Description("Collect the TuneCore community catalog into MongoDB or Redis."),
		kong.UsageOnError(),
		kong.Writers(stdout, os.Stderr),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := cli.loadConfig()
	if err != nil {
		logger := logging.NewLogger(logging.ComponentCLI)
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger(logging.ComponentCLI)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := &runtime{
		ctx:         ctx,
		cfg:         cfg,
		stdin:       stdin,
		stdout:      stdout,
		interactive: isInteractive(stdin),
	}

	if err := kctx.Run(rt); err != nil {
		logger.Error().
			Err(err).
			Str("command", kctx.Command()).
			Msg("Command failed")
		return 1
	}
	return 0
}

// loadConfig loads the environment and applies the global flag overrides.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.EnvFile)
	if err != nil {
		return nil, err
	}

	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.Backend != "" {
		cfg.StoreBackend = c.Backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
