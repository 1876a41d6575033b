package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hwbot/internal/config"
	"hwbot/internal/poller"
	logx "hwbot/pkg/logx"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load and validate configuration without contacting any service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := g.load()
			if err != nil {
				return err
			}
			defer s.close()

			c := s.cfg
			if _, err := poller.ParseSchedule(c.Poll.Interval); err != nil {
				s.log.Critical("invalid configuration", logx.String("field", "poll.interval"), logx.Err(err))
				return &exitError{code: 1, err: err}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "config OK")
			fmt.Fprintf(out, "  endpoint:      %s\n", c.Practicum.Endpoint)
			fmt.Fprintf(out, "  token:         %s\n", redact(c.Practicum.Token))
			fmt.Fprintf(out, "  interval:      %s\n", c.Poll.Interval)
			fmt.Fprintf(out, "  lookback days: %d\n", c.Poll.LookbackDays)
			fmt.Fprintf(out, "  channel:       %s\n", c.Notifier.Channel)
			switch c.Notifier.Channel {
			case config.ChannelSlack:
				fmt.Fprintf(out, "  recipient:     %s\n", c.Slack.ChannelID)
			default:
				fmt.Fprintf(out, "  recipient:     %s\n", c.Telegram.ChatID)
			}
			return nil
		},
	})
	return cmd
}

// redact keeps the last four characters of a secret.
func redact(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
