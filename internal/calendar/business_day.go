// Package calendar maps email timestamps to the business day an invoice is
// filed under.
package calendar

import "time"

// cutoffHour is the local hour at or after which an invoice rolls over to the
// next business day. The comparison is inclusive: 17:00:00 already rolls over.
const cutoffHour = 17

// startHour is the local hour a business day opens at after a rollover.
const startHour = 8

// Resolve converts t to loc and returns the business day the invoice should
// be filed under. Friday at or after the cutoff, Saturday, and Sunday all
// advance to the following Monday at 08:00 local; any other day at or after
// the cutoff advances to the next calendar day at 08:00 local. Timestamps
// before the cutoff on Monday through Thursday are returned unchanged.
func Resolve(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)

	wd := local.Weekday()
	if (wd == time.Friday && local.Hour() >= cutoffHour) || wd == time.Saturday || wd == time.Sunday {
		return atBusinessOpen(local.AddDate(0, 0, daysUntilMonday(wd)))
	}

	if local.Hour() >= cutoffHour {
		return atBusinessOpen(local.AddDate(0, 0, 1))
	}

	return local
}

func daysUntilMonday(wd time.Weekday) int {
	switch wd {
	case time.Friday:
		return 3
	case time.Saturday:
		return 2
	default: // Sunday
		return 1
	}
}

func atBusinessOpen(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), startHour, 0, 0, 0, d.Location())
}
