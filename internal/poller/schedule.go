package poller

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval is the pause between ticks when nothing is configured.
const DefaultInterval = 10 * time.Minute

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses the poll schedule.
//
// Supported forms:
//   - Go duration: "10m", "90s"
//   - Plain seconds: "600"
//   - HH:MM interval: "00:10"
//   - Cron: "*/10 * * * *", "@every 10m", "@hourly"
//
// An empty string selects DefaultInterval.
func ParseSchedule(raw string) (cron.Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return cron.Every(DefaultInterval), nil
	}

	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		sched, err := cronParser.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", raw, err)
		}
		return sched, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("interval must be > 0")
		}
		return cron.Every(time.Duration(n) * time.Second), nil
	}

	if m := reHHMM.FindStringSubmatch(s); len(m) == 3 {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm > 59 {
			return nil, fmt.Errorf("invalid minutes in %q", raw)
		}
		d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		if d <= 0 {
			return nil, fmt.Errorf("interval must be > 0")
		}
		return cron.Every(d), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf(
			"invalid schedule %q (use a duration like '10m', seconds like '600', HH:MM like '00:10' or cron like '*/10 * * * *')",
			raw,
		)
	}
	if d < time.Second {
		return nil, fmt.Errorf("interval must be >= 1s")
	}
	return cron.Every(d), nil
}
