package clock

import (
	"errors"
	"fmt"
	"time"

	"github.com/Geneteca/discord-bot/internal/model"
)

// ErrInvalidTimestamp is returned for civil date/time input that does
// not parse in the expected format.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// civilLayout is the fixed input format users type: DD-MM-YYYY HH:MM.
const civilLayout = "02-01-2006 15:04"

// ToInstant parses a civil date and time-of-day in the given location.
func ToInstant(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(civilLayout, date+" "+timeOfDay, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q %q", ErrInvalidTimestamp, date, timeOfDay)
	}
	return t, nil
}

// AddMonths advances t by n calendar months, clamping the day-of-month
// to the last valid day of the target month: Jan 31 + 1 month is
// Feb 28, or Feb 29 in a leap year. Plain AddDate would normalize
// Jan 31 + 1 month into Mar 2/3 instead.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

// daysInMonth: first of next month, roll back a day.
func daysInMonth(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// NextOccurrence computes the following occurrence of a recurring
// event from the event's own schedule. For RecurrenceNone the input is
// returned unchanged; the caller terminates the event instead of
// rescheduling it.
func NextOccurrence(when time.Time, r model.Recurrence) time.Time {
	switch r {
	case model.RecurrenceDaily:
		return when.Add(24 * time.Hour)
	case model.RecurrenceWeekly:
		return when.Add(7 * 24 * time.Hour)
	case model.RecurrenceMonthly:
		return AddMonths(when, 1)
	default:
		return when
	}
}
