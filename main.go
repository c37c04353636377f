package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sadopc/trackview/internal/api"
	"github.com/sadopc/trackview/internal/clock"
	"github.com/sadopc/trackview/internal/config"
	"github.com/sadopc/trackview/internal/logger"
	"github.com/sadopc/trackview/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	apiBase    string
	debug      bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "trackview",
		Short:         "Review tracked work sessions and their screenshot evidence",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath(), "config file")
	root.PersistentFlags().StringVar(&g.apiBase, "api-base", "", "backend origin, overrides api_base")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "debug logging (to stderr outside the TUI)")

	root.AddCommand(newViewCmd(g))
	root.AddCommand(newSummaryCmd(g))
	root.AddCommand(newExportCmd(g))
	root.AddCommand(newExplainCmd(g))
	root.AddCommand(newCacheCmd(g))
	return root
}

// env is everything a command needs, opened from the config.
type env struct {
	cfg     *config.Config
	store   *store.Store
	client  *api.Client
	clock   clock.Clock
	logFile *os.File
}

// setup loads the config, configures logging and opens the cache. The TUI
// always logs to the file since it owns the terminal.
func setup(g *globalFlags, tui bool) (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.apiBase != "" {
		cfg.APIBase = g.apiBase
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	e := &env{cfg: cfg, clock: clock.System{}}

	level := logger.LevelFromEnv(cfg.LogLevel)
	if g.debug {
		level = logger.LevelDebug
	}
	if g.debug && !tui {
		logger.Configure(os.Stderr, level, true)
	} else {
		f, err := logger.OpenFile(cfg.LogFile, level)
		if err != nil {
			return nil, err
		}
		e.logFile = f
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	e.store = s

	opts := []api.Option{api.WithTimeout(cfg.RequestTimeout)}
	if cfg.Token != "" {
		opts = append(opts, api.WithToken(cfg.Token))
	}
	e.client = api.New(cfg.APIBase, opts...)

	logger.Logger.Debug().
		Str("config", g.configPath).
		Str("api_base", cfg.APIBase).
		Str("db", cfg.DBPath).
		Msg("startup")
	return e, nil
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
}
