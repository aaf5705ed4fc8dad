package utils

import (
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// DatePreset is a quick date filter.
type DatePreset struct {
	Key   string
	Label string
}

// DatePresets lists the quick filters in display order.
var DatePresets = []DatePreset{
	{"today", "Today"},
	{"thisWeek", "This Week"},
	{"thisMonth", "This Month"},
	{"nextMonth", "Next Month"},
}

// PresetDay resolves a quick-filter preset to the calendar day it selects,
// relative to now in now's location. Weeks start on Sunday.
func PresetDay(preset string, now time.Time) (string, error) {
	today := StartOfDay(now)
	switch preset {
	case "today":
		return today.Format(dayLayout), nil
	case "thisWeek":
		return today.AddDate(0, 0, -int(today.Weekday())).Format(dayLayout), nil
	case "thisMonth":
		return time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).Format(dayLayout), nil
	case "nextMonth":
		return time.Date(today.Year(), today.Month()+1, 1, 0, 0, 0, 0, today.Location()).Format(dayLayout), nil
	default:
		return "", fmt.Errorf("unknown date preset %q", preset)
	}
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDay parses a YYYY-MM-DD calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, s)
}

// FormatDayLabel renders a calendar day for display, e.g. "Friday, March 14, 2025".
func FormatDayLabel(day string) string {
	t, err := ParseDay(day)
	if err != nil {
		return day
	}
	return t.Format("Monday, January 2, 2006")
}
