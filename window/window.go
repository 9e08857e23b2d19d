// Package window decides whether a note's extracted dates fall inside a
// relative day-offset window from now.
package window

import (
	"time"

	"notebot/extract"
)

// Eval reports whether any of dates equals now + offsetDays. The matching
// date is returned at midnight in now's location. A note with zero extracted
// dates never matches any window.
func Eval(now time.Time, offsetDays int, dates []extract.Date) (time.Time, bool) {
	target := midnight(now).AddDate(0, 0, offsetDays)

	for _, d := range dates {
		if d.Year == target.Year() && d.Month == int(target.Month()) && d.Day == target.Day() {
			return target, true
		}
	}

	return time.Time{}, false
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
