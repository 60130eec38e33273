package syncer

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions (minute, hour, dom,
// month, dow) and descriptors such as "@hourly" or "@every 10m".
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// parseSchedule validates a resync expression. An empty expression means
// no periodic resync.
func parseSchedule(expr string) (cron.Schedule, error) {
	if expr == "" {
		return nil, nil
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("syncer: resync schedule %q: %w", expr, err)
	}
	return sched, nil
}

// nextDelay returns the duration until the schedule next fires after now.
func nextDelay(sched cron.Schedule, now time.Time) time.Duration {
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
