package services

import "time"

// Clock supplies "today" to everything that depends on the calendar.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests and by the
// snapshot job when recomputing a past window.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// AcademicYearWindow returns the first and last day of the academic year that
// contains today. The year runs from September 1 to August 31.
func AcademicYearWindow(today time.Time) (start, end time.Time) {
	year := today.Year()
	if today.Month() < time.September {
		year--
	}
	return AcademicYearStarting(year)
}

// AcademicYearStarting returns the window of the academic year that begins in
// September of startYear.
func AcademicYearStarting(startYear int) (start, end time.Time) {
	start = time.Date(startYear, time.September, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(1, 0, -1)
	return start, end
}

// dateOnly drops the clock part so a timestamp can be compared against a
// DATE column.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
