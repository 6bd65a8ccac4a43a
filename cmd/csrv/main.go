package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ehrlich-b/csrv/internal/auth"
	"github.com/ehrlich-b/csrv/internal/config"
	"github.com/ehrlich-b/csrv/internal/console"
	"github.com/ehrlich-b/csrv/internal/logger"
	"github.com/ehrlich-b/csrv/internal/ui"
	"github.com/ehrlich-b/csrv/internal/ws"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	configFlag   string
	logLevelFlag string
	logFileFlag  string
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "csrv <email> <password> <server-id>",
		Short: "Remote console for craftserve.pl servers",
		Long: "Logs in to the craftserve.pl panel and attaches to a server console.\n" +
			"Type commands to run them on the server; .q or .quit exits.\n" +
			"Pass - as the password to use the one saved by `csrv login`.",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			email, serverID := args[0], args[2]
			password, err := resolvePassword(args[1], email, cfg, auth.NewKeyring(), promptPassword)
			if err != nil {
				return err
			}
			return runConsole(cfg, email, password, serverID)
		},
	}

	root.PersistentFlags().StringVar(&configFlag, "config", config.DefaultPath(), "config file")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "diagnostic log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "write diagnostics to this file instead of stderr")

	root.AddCommand(loginCmd(), logoutCmd())
	return root
}

// setup loads the config, applies flag overrides, and starts the logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
	if logFileFlag != "" {
		cfg.Log.File = logFileFlag
	}
	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}); err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return cfg, nil
}

type frontEnd interface {
	console.InputSource
	console.Presenter
	Close() error
}

func openFrontEnd() (frontEnd, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		return ui.NewTerminal(os.Stdin, os.Stdout)
	}
	return ui.NewPlain(os.Stdin, os.Stdout), nil
}

func runConsole(cfg *config.Config, email, password, serverID string) error {
	opts, err := consoleOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := os.Stat(configFlag); err == nil && logLevelFlag == "" {
		go func() {
			err := config.Watch(ctx, configFlag, func(c *config.Config) {
				logger.SetLevel(c.Log.Level)
			})
			if err != nil {
				logger.Warn("config watch stopped", "error", err)
			}
		}()
	}

	fe, err := openFrontEnd()
	if err != nil {
		return err
	}
	defer fe.Close()

	loop := &console.Loop{
		Auth:    auth.NewClient(cfg.BaseURL),
		Dialer:  &ws.Dialer{},
		Input:   fe,
		Out:     fe,
		Options: opts,
	}
	err = loop.Run(ctx, email, password, serverID)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func consoleOptions(cfg *config.Config) (console.Options, error) {
	t, err := cfg.Timings()
	if err != nil {
		return console.Options{}, err
	}
	opts := console.DefaultOptions()
	opts.KeepaliveInterval = t.KeepaliveInterval
	opts.ReceiveTimeout = t.ReceiveTimeout
	opts.ReconnectDelay = t.ReconnectDelay
	opts.ReconnectMaxDelay = t.ReconnectMaxDelay
	opts.MaxErrors = cfg.MaxErrors
	opts.CommandRate = cfg.CommandRate
	opts.CommandBurst = cfg.CommandBurst
	opts.Debug = cfg.Debug
	return opts, nil
}
