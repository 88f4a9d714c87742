// Command calctl inspects and maintains saved pulse calibrations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/qexp/calstore/commands"
	"github.com/qexp/calstore/config"
	"github.com/qexp/calstore/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cfg, err := config.Load(configPath(args))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lggr, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = lggr.Sync() }()

	cmd, err := commands.NewCommand(commands.Config{
		Logger: lggr,
		Deps: commands.Deps{
			ConfigLoader: func(string) (*config.Config, error) { return cfg, nil },
		},
	})
	if err != nil {
		return err
	}
	cmd.SetArgs(args)

	return cmd.ExecuteContext(ctx)
}

// configPath returns the value of --config in args, which is needed before the command tree
// exists to configure the logger.
func configPath(args []string) string {
	fs := pflag.NewFlagSet("calctl", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	path := fs.String("config", commands.DefaultConfigPath, "")
	fs.BoolP("help", "h", false, "")
	_ = fs.Parse(args)

	return *path
}

func newLogger(cfg config.LogConfig) (logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	lcfg := logger.Config{Level: level, Encoding: cfg.Encoding}

	return lcfg.New()
}
