package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"hwbot/internal/app"
	logx "hwbot/pkg/logx"
)

const shutdownTimeout = 5 * time.Second

func newRunCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll for status changes until interrupted (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context(), g)
		},
	}
}

func runBot(ctx context.Context, g *globals) error {
	s, err := g.load()
	if err != nil {
		return err
	}
	defer s.close()

	a, err := app.New(s.cfg, s.log, app.Options{Logs: s.logs, Manager: s.mgr})
	if err != nil {
		s.log.Critical("startup failed", logx.Err(err))
		return &exitError{code: 1, err: err}
	}
	if err := a.Start(ctx); err != nil {
		s.log.Critical("startup failed", logx.Err(err))
		return &exitError{code: 1, err: err}
	}

	select {
	case <-ctx.Done():
		s.log.Info("shutdown requested")
	case <-a.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		s.log.Warn("shutdown incomplete", logx.Err(err))
	}
	if err := a.Err(); err != nil {
		s.log.Critical("bot stopped on error", logx.Err(err))
		return &exitError{code: 1, err: err}
	}
	return nil
}

func newOnceCmd(g *globals) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single poll and exit",
		Long:  "once runs one fetch, compare and notify pass. With --dry-run the notifications are printed instead of sent.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}
			defer s.close()

			opts := app.Options{}
			if dryRun {
				opts.Sender = printSender{w: cmd.OutOrStdout()}
			}
			a, err := app.New(s.cfg, s.log, opts)
			if err != nil {
				s.log.Critical("startup failed", logx.Err(err))
				return &exitError{code: 1, err: err}
			}
			rep := a.RunOnce(cmd.Context())
			if err := a.Stop(cmd.Context()); err != nil {
				s.log.Warn("shutdown incomplete", logx.Err(err))
			}
			if rep.Err != nil {
				return &exitError{code: 1, err: rep.Err}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print notifications to stdout instead of sending them")
	return cmd
}

// printSender writes notifications to w, one per line.
type printSender struct {
	w io.Writer
}

func (p printSender) Send(_ context.Context, message string) error {
	_, err := fmt.Fprintln(p.w, message)
	return err
}
