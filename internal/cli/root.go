// Package cli is the hwbot command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"hwbot/internal/app"
	"hwbot/internal/config"
	logx "hwbot/pkg/logx"
)

// Version is set at build time with -ldflags "-X hwbot/internal/cli.Version=...".
var Version = "dev"

// exitError carries an exit code for an error that was already logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type globals struct {
	configPath string
	envFile    string

	stdout io.Writer
	stderr io.Writer
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	g := &globals{stdout: stdout, stderr: stderr}
	root := newRootCmd(g)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	_, _ = fmt.Fprintln(stderr, "error:", err)
	return 1
}

func newRootCmd(g *globals) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hwbot",
		Short:         "Homework review status notifier",
		Long:          "hwbot polls the homework statuses API and sends a message to Telegram or Slack whenever a review verdict changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), g)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", config.DefaultPath, "path to config file (yaml or json)")
	pf.StringVar(&g.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment")

	rootCmd.AddCommand(
		newRunCmd(g),
		newOnceCmd(g),
		newConfigCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		},
	}
}

// session is a loaded config plus the logging service built from it.
type session struct {
	mgr  *config.Manager
	cfg  *config.Config
	logs *logx.Service
	log  logx.Logger
}

func (s *session) close() { _ = s.logs.Close() }

// load reads .env, the config file and the environment, then starts logging.
// Invalid configuration is logged at critical level and reported as exit 1.
func (g *globals) load() (*session, error) {
	envErr := config.LoadEnvFile(g.envFile)

	mgr := config.NewManager(g.configPath, nil)
	cfg, err := mgr.Load()

	lcfg := logx.Config{Level: config.DefaultLogLevel, Console: true}
	if cfg != nil {
		lcfg = app.LogConfig(cfg)
	}
	lcfg.Output = g.stderr
	logs, log := logx.New(lcfg)
	mgr.SetLogger(log.With(logx.String("comp", "config")))
	s := &session{mgr: mgr, cfg: cfg, logs: logs, log: log}

	if envErr != nil {
		log.Warn("env file not loaded", logx.Err(envErr))
	}
	if err == nil {
		return s, nil
	}

	var me *config.MissingError
	if errors.As(err, &me) {
		log.Critical("required settings are missing; stopping", logx.Strs("missing", me.Names))
	} else {
		log.Critical("invalid configuration", logx.String("path", mgr.Path()), logx.Err(err))
	}
	s.close()
	return nil, &exitError{code: 1, err: err}
}
