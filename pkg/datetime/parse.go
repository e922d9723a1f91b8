// Package datetime provides date utility functions for exchange rate dates.
package datetime

import (
	"time"
)

// DateLayout is the format of dates in the BNR feed and in every output.
const DateLayout = time.DateOnly

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, time.UTC)
}

// MustParseDate parses a date and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseDate(date string) time.Time {
	t, err := ParseDate(date)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatDate formats t with DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateAfterDate returns true if firstDate is strictly after secondDate.
func DateAfterDate(firstDate string, secondDate string) (bool, error) {
	firstDateT, err := ParseDate(firstDate)
	if err != nil {
		return false, err
	}
	secondDateT, err := ParseDate(secondDate)
	if err != nil {
		return false, err
	}
	return firstDateT.After(secondDateT), nil
}

// DaysOld returns how many whole days separate date from now, ignoring the time of day.
func DaysOld(date, now time.Time) int {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return int(today.Sub(day).Hours() / 24)
}
