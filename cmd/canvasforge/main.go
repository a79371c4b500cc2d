// Package main is the entry point for the canvasforge diagram editor.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/dshills/canvasforge/internal/app"
	"github.com/dshills/canvasforge/internal/config"
	"github.com/dshills/canvasforge/internal/input/keymap"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(stdout, stderr).Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if exitErr, ok := err.(cli.ExitCoder); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "canvasforge",
		Usage:     "diagram editor with undo history",
		Writer:    stdout,
		ErrWriter: stderr,
		// Exit codes are mapped by run.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				Sources: cli.EnvVars("CANVASFORGE_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "reload the configuration file when it changes",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "replay editing scripts and print the resulting scene",
				ArgsUsage: "<script.yaml>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "do not print the scene",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return replay(ctx, cmd, stdout, stderr)
				},
			},
			{
				Name:  "config",
				Usage: "print the effective configuration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					data, err := cfg.Encode()
					if err != nil {
						return err
					}
					_, err = stdout.Write(data)
					return err
				},
			},
			{
				Name:  "keys",
				Usage: "list key bindings",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd)
					if err != nil {
						return err
					}
					km := keymap.Default()
					if err := km.Apply(cfg.Keys); err != nil {
						return err
					}
					for _, b := range km.Bindings() {
						fmt.Fprintf(stdout, "%-16s %s\n", b.Chord, b.Action)
					}
					return nil
				},
			},
			{
				Name:  "version",
				Usage: "print version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Fprintf(stdout, "canvasforge %s\n", version)
					fmt.Fprintf(stdout, "Commit: %s\n", commit)
					fmt.Fprintf(stdout, "Built: %s\n", date)
					return nil
				},
			},
		},
	}
}

// loadConfig loads the configuration named by --config, or the default
// file, and applies --log-level.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if path == "" {
		path = config.DefaultPath()
	}
	return loadConfigFile(path, cmd.String("log-level"))
}

func loadConfigFile(path, level string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func replay(ctx context.Context, cmd *cli.Command, stdout, stderr io.Writer) error {
	if cmd.NArg() == 0 {
		return cli.Exit("replay: at least one script is required", 2)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logCfg := app.DefaultLoggerConfig()
	logCfg.Level = app.ParseLogLevel(cfg.Logging.Level)
	logCfg.Output = stderr
	logger := app.NewLogger(logCfg)

	level := cmd.String("log-level")
	editor, err := app.New(app.Options{
		Config:     cfg,
		Logger:     logger,
		Watch:      cmd.Bool("watch"),
		LoadConfig: func(path string) (*config.Config, error) { return loadConfigFile(path, level) },
	})
	if err != nil {
		return err
	}
	defer editor.Close()

	for _, path := range cmd.Args().Slice() {
		script, err := app.LoadScript(path)
		if err != nil {
			return err
		}
		if err := editor.Replay(ctx, script); err != nil {
			return app.WrapError(err, "replay %s", path)
		}
		logger.Info("replayed %s (%d steps)", path, len(script.Steps))
	}

	if !cmd.Bool("quiet") {
		out, err := app.EncodeDump(editor.Dump())
		if err != nil {
			return err
		}
		if _, err := stdout.Write(out); err != nil {
			return err
		}
	}

	if cmd.Bool("watch") {
		if cfg.Path == "" {
			logger.Warn("no configuration file to watch")
		}
		logger.Info("watching for changes, press Ctrl+C to exit")
		return editor.Run(ctx)
	}
	return nil
}
