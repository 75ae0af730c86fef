package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/pollchat/internal/app"
	"github.com/vovakirdan/pollchat/internal/auth"
	"github.com/vovakirdan/pollchat/internal/config"
	"github.com/vovakirdan/pollchat/internal/log"
)

type flags struct {
	configPath  string
	addr        string
	logLevel    string
	storeDriver string
	storePath   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "pollchat-server",
		Short:         "Message API for pollchat",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, &f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to config.yaml (env POLLCHAT_CONFIG_DEFAULT_PATH)")
	pf.StringVar(&f.addr, "addr", "", "HTTP listen address")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&f.storeDriver, "store-driver", "", "message store: sqlite or badger")
	pf.StringVar(&f.storePath, "store-path", "", "sqlite file or badger directory")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd, &f)
			},
		},
		newTokenCmd(&f),
	)
	return root
}

// loadConfig merges .env, config file, environment and command-line flags, in that order of precedence.
func loadConfig(cmd *cobra.Command, f *flags) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}

	bootLogger := log.New("info", "console")
	cfg, path, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		return cfg, err
	}

	var overrides config.Config
	if cmd.Flags().Changed("addr") {
		overrides.Addr = f.addr
	}
	if cmd.Flags().Changed("log-level") {
		overrides.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("store-driver") {
		overrides.Store.Driver = f.storeDriver
	}
	if cmd.Flags().Changed("store-path") {
		overrides.Store.Path = f.storePath
	}
	cfg.UpdateFrom(overrides)

	bootLogger.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func serve(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	logger := log.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting pollchat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newTokenCmd(f *flags) *cobra.Command {
	var sender string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print a session token naming --sender as the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("jwt.secret is not set (POLLCHAT_JWT_SECRET)")
			}

			token, err := auth.NewService(app.JWTConfig(&cfg)).IssueToken(sender)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "sender label carried by the token")
	_ = cmd.MarkFlagRequired("sender")
	return cmd
}
