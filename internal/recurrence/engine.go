package recurrence

import (
	"errors"
	"time"

	"github.com/example/studio-scheduler/internal/scheduler"
)

// Rule describes the weekday pattern of a recurring class series.
type Rule struct {
	Weekdays  []time.Weekday
	StartDate string
	EndDate   *string
}

// Window bounds a single expansion run. Both dates are inclusive calendar
// days in the canonical "YYYY-MM-DD" form.
type Window struct {
	From  string
	Until string
}

// ErrNoWeekdays indicates the rule selects no weekday at all.
var ErrNoWeekdays = errors.New("recurrence: rule requires at least one weekday")

// ErrInvalidWindow indicates the expansion window is unbounded or inverted.
var ErrInvalidWindow = errors.New("recurrence: invalid expansion window")

// Expand returns the calendar days on which the rule generates class events,
// in ascending order.
//
// Semantics:
//   - The effective range is the intersection of [rule.StartDate, rule.EndDate]
//     and [window.From, window.Until]; an open-ended rule is bounded by the
//     window alone.
//   - Days whose weekday is not selected by the rule are skipped.
//   - An empty intersection yields an empty result, not an error.
func Expand(rule Rule, window Window) ([]string, error) {
	if len(rule.Weekdays) == 0 {
		return nil, ErrNoWeekdays
	}
	if window.Until == "" {
		return nil, ErrInvalidWindow
	}

	from := window.From
	if from == "" || rule.StartDate > from {
		from = rule.StartDate
	}
	until := window.Until
	if rule.EndDate != nil && *rule.EndDate < until {
		until = *rule.EndDate
	}
	if from > until {
		return nil, nil
	}

	start, err := scheduler.ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := scheduler.ParseDate(until)
	if err != nil {
		return nil, err
	}

	selected := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		selected[day] = struct{}{}
	}

	var dates []string
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		if _, ok := selected[current.Weekday()]; !ok {
			continue
		}
		dates = append(dates, scheduler.FormatDate(current))
	}

	return dates, nil
}

// HorizonEnd returns the inclusive end of the default generation window for a
// series starting on startDate: the day before startDate + weeks*7 days.
func HorizonEnd(startDate string, weeks int) (string, error) {
	start, err := scheduler.ParseDate(startDate)
	if err != nil {
		return "", err
	}
	if weeks < 1 {
		weeks = 1
	}
	return scheduler.FormatDate(start.AddDate(0, 0, weeks*7-1)), nil
}
