package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a clock time stored as minutes from midnight (e.g., 990 for 4:30PM).
// Slot times across bookings, locks and subscriptions all use this type so that
// overlap arithmetic never touches display strings.
type TimeOfDay int

// ParseTimeOfDay accepts both 12-hour labels ("4:30PM", "9AM") and 24-hour
// clock strings ("16:30") and returns the minutes-from-midnight value.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("empty time label")
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(raw, "AM"):
		meridiem = "AM"
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "AM"))
	case strings.HasSuffix(raw, "PM"):
		meridiem = "PM"
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "PM"))
	}

	hourPart, minutePart := raw, "0"
	if idx := strings.Index(raw, ":"); idx >= 0 {
		hourPart, minutePart = raw[:idx], raw[idx+1:]
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in time label %q", s)
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minutes in time label %q", s)
	}

	switch meridiem {
	case "AM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid hour in time label %q", s)
		}
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("invalid hour in time label %q", s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("invalid hour in time label %q", s)
		}
	}

	return TimeOfDay(hour*60 + minute), nil
}

// Minutes returns the raw minutes-from-midnight value.
func (t TimeOfDay) Minutes() int { return int(t) }

// Add returns the time shifted forward by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay { return t + TimeOfDay(minutes) }

// String renders the 12-hour display label, e.g. "4:30PM".
func (t TimeOfDay) String() string {
	hour := int(t) / 60 % 24
	minute := int(t) % 60
	meridiem := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		display = hour - 12
		meridiem = "PM"
	}
	if minute == 0 {
		return fmt.Sprintf("%d%s", display, meridiem)
	}
	return fmt.Sprintf("%d:%02d%s", display, minute, meridiem)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// NormalizeDate accepts "2006-01-02" or an RFC3339 timestamp and returns the
// calendar date string, i.e. the timestamp truncated to midnight.
func NormalizeDate(s string) (string, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("invalid date %q", s)
}

// DateOf formats a timestamp as the calendar date string used across the data model.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
