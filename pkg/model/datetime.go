package model

import (
	"errors"
	"strings"
	"time"
)

const (
	inputDateLayout     = "2/1/2006"
	inputDateTimeLayout = "2/1/2006 1504"
	displayLayout       = "Jan 02 2006 1504"
	rawLayout           = inputDateTimeLayout
)

// ParseDateTime parses the command input format "d/M/yyyy[ HHmm]".
// A missing time of day means midnight.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	layout := inputDateLayout
	if strings.Contains(s, " ") {
		layout = inputDateTimeLayout
	}
	t, err := parseLocal(layout, s)
	if err != nil {
		return time.Time{}, NewError(ErrInvalidFormat, "You have entered an invalid date or time!")
	}
	return t, nil
}

// parseRaw reads a date in the persisted form written by FormatRaw.
func parseRaw(s string) (time.Time, error) {
	return parseLocal(rawLayout, s)
}

var errNoSuchLocalTime = errors.New("time does not exist in the local zone")

// parseLocal parses s as a local wall-clock time. Times skipped by a
// daylight-saving jump are rejected rather than shifted to a neighbouring hour.
func parseLocal(layout, s string) (time.Time, error) {
	wall, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, err
	}
	t := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), 0, 0, time.Local)
	if t.Day() != wall.Day() || t.Hour() != wall.Hour() || t.Minute() != wall.Minute() {
		return time.Time{}, errNoSuchLocalTime
	}
	return t, nil
}

// FormatDisplay renders t the way tasks show it, e.g. "Dec 02 2019 1800".
func FormatDisplay(t time.Time) string {
	return t.Format(displayLayout)
}

// FormatRaw renders t in the persisted form, which ParseDateTime reads back.
func FormatRaw(t time.Time) string {
	return t.Format(rawLayout)
}
