package telegraph

import (
	"time"

	"github.com/robfig/cron/v3"
)

// nextCronDuration parses a standard cron expression (5-field or a
// descriptor such as "@hourly") and returns the time from now until it next
// fires. It returns 0 if the expression does not parse.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
