// Package timegrid converts between absolute instants and the civil
// minute-of-day arithmetic the slot grid is built on. Opening hours are
// civil-time concepts, so every projection goes through an explicit
// *time.Location rather than UTC wall-clock.
package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat reports a malformed opening-hours spec or malformed
// grid parameters. Callers match it with errors.Is.
var ErrInvalidFormat = errors.New("timegrid: invalid format")

// MinutesPerDay is the number of civil minutes in a day.
const MinutesPerDay = 1440

// OpeningSpec is a day's opening window as minute-of-day bounds.
// Invariant: 0 <= OpenMinute < CloseMinute <= 1440.
type OpeningSpec struct {
	OpenMinute  int
	CloseMinute int
}

// ParseOpening parses a compact "HH:MM-HH:MM" opening-hours spec.
// "24:00" is accepted as a closing bound.
func ParseOpening(spec string) (OpeningSpec, error) {
	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return OpeningSpec{}, fmt.Errorf("%w: opening hours %q must be HH:MM-HH:MM", ErrInvalidFormat, spec)
	}

	open, err := parseMinuteOfDay(parts[0])
	if err != nil {
		return OpeningSpec{}, err
	}
	closing, err := parseMinuteOfDay(parts[1])
	if err != nil {
		return OpeningSpec{}, err
	}

	if open >= closing {
		return OpeningSpec{}, fmt.Errorf("%w: opening %q must start before it closes", ErrInvalidFormat, spec)
	}
	return OpeningSpec{OpenMinute: open, CloseMinute: closing}, nil
}

func parseMinuteOfDay(token string) (int, error) {
	hm := strings.Split(strings.TrimSpace(token), ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("%w: time %q must be HH:MM", ErrInvalidFormat, token)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidFormat, token)
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidFormat, token)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: time %q out of range", ErrInvalidFormat, token)
	}
	total := hour*60 + minute
	if total > MinutesPerDay {
		return 0, fmt.Errorf("%w: time %q past end of day", ErrInvalidFormat, token)
	}
	return total, nil
}

// Minutes returns the length of the opening window.
func (o OpeningSpec) Minutes() int {
	return o.CloseMinute - o.OpenMinute
}

// OpenAt returns the civil instant the window opens on the given day.
// The day's date is taken in loc.
func (o OpeningSpec) OpenAt(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, 0, o.OpenMinute, 0, 0, loc)
}

// CloseAt returns the civil instant the window closes on the given day.
func (o OpeningSpec) CloseAt(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, 0, o.CloseMinute, 0, 0, loc)
}

// String renders the opening window back to "HH:MM-HH:MM".
func (o OpeningSpec) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d",
		o.OpenMinute/60, o.OpenMinute%60, o.CloseMinute/60, o.CloseMinute%60)
}

// MinuteOfDay projects an absolute instant into loc's minute-of-day
// (0-1439).
func MinuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// RoundToStep rounds t to the nearest multiple of stepMinutes within its
// civil day in loc, ties away from zero. Seconds are dropped. A rounded
// minute of 1440 normalizes to the next day's midnight.
func RoundToStep(t time.Time, stepMinutes int, loc *time.Location) time.Time {
	if stepMinutes <= 0 {
		return t
	}
	minute := MinuteOfDay(t, loc)
	rounded := ((minute*2 + stepMinutes) / (2 * stepMinutes)) * stepMinutes
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, rounded, 0, 0, loc)
}
