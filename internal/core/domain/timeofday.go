package domain

import (
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay is the length of a day in minutes.
const MinutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, invalid("time", itoa(hour)+":"+itoa(minute), "hour must be 0-23 and minute 0-59")
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MinuteOfDay truncates t (in its own location) to minutes since midnight.
func MinuteOfDay(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// ParseTimeOfDay accepts "HH:MM" (24-hour) or "h:MM AM|PM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, invalid("time", s, "empty")
	}

	clock, meridiem := raw, ""
	if i := strings.LastIndexByte(raw, ' '); i > 0 {
		clock, meridiem = strings.TrimSpace(raw[:i]), strings.ToUpper(raw[i+1:])
		if meridiem != "AM" && meridiem != "PM" {
			return 0, invalid("time", s, "expected HH:MM or h:MM AM/PM")
		}
	}

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, invalid("time", s, "expected HH:MM or h:MM AM/PM")
	}
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, invalid("time", s, "12-hour clock hour must be 1-12")
		}
		switch {
		case meridiem == "AM" && hour == 12:
			hour = 0
		case meridiem == "PM" && hour != 12:
			hour += 12
		}
	}

	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		return 0, invalid("time", s, "hour must be 0-23 and minute 0-59")
	}
	return t, nil
}

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the 24-hour form, e.g. "06:30".
func (t TimeOfDay) String() string {
	return pad2(t.Hour()) + ":" + pad2(t.Minute())
}

// Format12h renders the display form, e.g. "6:30 AM".
func (t TimeOfDay) Format12h() string {
	h := t.Hour()
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return itoa(h) + ":" + pad2(t.Minute()) + " " + period
}

// On returns the instant at t on the calendar day of date, in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, invalid("time", itoa(int(t)), "out of range")
	}
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

func pad2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func itoa(n int) string { return strconv.Itoa(n) }
