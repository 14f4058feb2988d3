// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"github.com/robfig/cron/v3"
)

// standardParser accepts five-field cron expressions (minute to weekday).
var standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule checks that schedule is a valid five-field expression.
func ValidateCronSchedule(schedule string) error {
	_, err := standardParser.Parse(schedule)
	return err
}
