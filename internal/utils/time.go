package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/lessfeed/internal/constants"
)

// DayUTC returns the UTC calendar day (YYYY-MM-DD) containing t.
// Per-day state is keyed by this string so it resets at UTC midnight.
func DayUTC(t time.Time) string {
	return t.UTC().Format(constants.DateFormat)
}

// PreviousDayUTC returns the UTC calendar day before the one containing t.
func PreviousDayUTC(t time.Time) string {
	return t.UTC().AddDate(0, 0, -1).Format(constants.DateFormat)
}

// ParseDay parses a YYYY-MM-DD string as midnight UTC.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", day, err)
	}
	return t, nil
}

// DaysBetween returns the number of whole UTC days from day a to day b.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDay(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDay(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// FormatClock formats an hour and minute as HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ValidateTimeFormat checks if the string matches the standard time format.
func ValidateTimeFormat(timeStr string) bool {
	_, err := ParseTime(timeStr)
	return err == nil
}
