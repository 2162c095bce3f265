// Package timeutil centralizes the date and batch labels used across
// the snapshot store, reports and push records.
package timeutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"
)

const (
	maxHour        = 23
	minutesPerHour = 60
)

// Static errors for clock validation.
var (
	ErrClockFormat   = errors.New("time must be HH:MM")
	ErrInvalidHour   = errors.New("invalid hour")
	ErrInvalidMinute = errors.New("invalid minute")
)

// Location resolves a timezone name, defaulting to UTC when empty.
func Location(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	return loc, nil
}

// DateFolder formats the per-day output directory name.
func DateFolder(t time.Time) string {
	return t.Format("2006-01-02")
}

// DateCompact formats the date used in push record file names.
func DateCompact(t time.Time) string {
	return t.Format("20060102")
}

// BatchLabel formats the lexically sortable snapshot label for a
// capture time, e.g. "09-30". Lexical order of labels equals time
// order within a day.
func BatchLabel(t time.Time) string {
	return t.Format("15-04")
}

// ClockFromLabel converts a batch label back to clock display form,
// "09-30" becoming "09:30". Unknown shapes pass through untouched.
func ClockFromLabel(label string) string {
	if len(label) == 5 && label[2] == '-' {
		return label[:2] + ":" + label[3:]
	}

	return label
}

// NormalizeClock accepts H:MM or HH:MM and returns HH:MM. Anything
// else is returned unchanged together with an error, so that window
// comparisons against it fail literally instead of being auto-fixed.
func NormalizeClock(value string) (string, error) {
	trimmed := strings.TrimSpace(value)

	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 || len(parts[1]) != 2 {
		return value, ErrClockFormat
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > maxHour {
		return value, ErrInvalidHour
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute >= minutesPerHour {
		return value, ErrInvalidMinute
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
