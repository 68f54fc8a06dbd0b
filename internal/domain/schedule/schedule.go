// Package schedule computes calibration due dates and classifies
// instruments by how close they are to their next calibration.
package schedule

import "time"

// DefaultFrequencyMonths is used when an instrument has no calibration
// interval of its own.
const DefaultFrequencyMonths = 12

// DefaultDueSoonDays is the standard reminder window.
const DefaultDueSoonDays = 30

// DueState classifies an instrument relative to its next due date.
type DueState string

const (
	DueOK      DueState = "ok"
	DueSoon    DueState = "due_soon"
	DueOverdue DueState = "overdue"
)

// DateLayout is the wire format for calibration dates.
const DateLayout = "2006-01-02"

// NextDue returns the due date that follows a calibration performed on
// lastCal. Adding months clamps to the end of the target month, so a
// January 31st calibration with a one-month interval falls due on
// February 28th (or 29th), not March 3rd. A non-positive frequency falls
// back to DefaultFrequencyMonths.
func NextDue(lastCal time.Time, frequencyMonths int) time.Time {
	if frequencyMonths <= 0 {
		frequencyMonths = DefaultFrequencyMonths
	}
	return addMonthsClamped(truncateToDay(lastCal), frequencyMonths)
}

// Classify reports whether nextDue is overdue, inside the due-soon
// window, or comfortably in the future, as of today. The window is
// inclusive on both ends; a non-positive window uses DefaultDueSoonDays.
func Classify(nextDue, today time.Time, dueSoonDays int) DueState {
	if dueSoonDays <= 0 {
		dueSoonDays = DefaultDueSoonDays
	}
	nextDue = truncateToDay(nextDue)
	today = truncateToDay(today)

	if nextDue.Before(today) {
		return DueOverdue
	}
	if !nextDue.After(today.AddDate(0, 0, dueSoonDays)) {
		return DueSoon
	}
	return DueOK
}

// DaysUntil returns the whole days from today to nextDue; negative when
// the date has passed.
func DaysUntil(nextDue, today time.Time) int {
	d := truncateToDay(nextDue).Sub(truncateToDay(today))
	return int(d / (24 * time.Hour))
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := daysIn(target.Year(), target.Month())
	if d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
