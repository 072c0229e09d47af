package poller

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule is the pause between two polls when none is configured.
const DefaultSchedule = "600s"

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// ParseSchedule turns a schedule string into a cron.Schedule.
//
// Accepted forms:
//   - Go duration: "600s", "10m"
//   - HH:MM interval: "00:10" (ten minutes)
//   - cron expression: "*/10 * * * *", "@hourly", "@every 10m"
//
// An empty string yields DefaultSchedule.
func ParseSchedule(raw string) (cron.Schedule, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		s = DefaultSchedule
	}

	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		sched, err := cronParser.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", raw, err)
		}
		return sched, nil
	}

	if reHHMM.MatchString(s) {
		d, err := parseHHMM(s)
		if err != nil {
			return nil, err
		}
		return cron.Every(d), nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, fmt.Errorf(
			"invalid schedule %q (use a duration like '10m', HH:MM like '00:10', or cron like '*/10 * * * *')",
			raw,
		)
	}
	if d < time.Second {
		return nil, fmt.Errorf("schedule interval must be at least 1s, got %s", d)
	}
	return cron.Every(d), nil
}

func parseHHMM(v string) (time.Duration, error) {
	m := reHHMM.FindStringSubmatch(v)
	if len(m) != 3 {
		return 0, fmt.Errorf("invalid HH:MM %q", v)
	}
	hh, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	if mm > 59 {
		return 0, fmt.Errorf("invalid minutes in %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0")
	}
	return d, nil
}
