package model

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// TimeOfDay is a naive wall-clock time with minute precision, stored as
// minutes after midnight. It marshals as "HH:MM".
type TimeOfDay int

// NoTime marks an unset time (an empty form field).
const NoTime TimeOfDay = -1

const minutesPerDay = 24 * 60

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "HH:MM". An empty string yields NoTime.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if s == "" {
		return NoTime, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return NoTime, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// MustTime is ParseTimeOfDay for literals; it panics on bad input.
func MustTime(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// IsValid reports whether t is a time within a single day.
func (t TimeOfDay) IsValid() bool {
	return t >= 0 && t < minutesPerDay
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	if !t.IsValid() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// On places t on calendar date d in loc.
func (t TimeOfDay) On(d civil.Date, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	v, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
