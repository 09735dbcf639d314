package domain

import (
	"strings"
	"time"
)

// Weekday is a day label in the community's seven-day vocabulary.
// Numbering matches time.Weekday; the seventh day is Shabbat.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Shabbat
)

var weekdayLabels = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Shabbat"}

// weekdayAliases maps lower-cased alternative labels onto canonical days.
var weekdayAliases = map[string]Weekday{
	"sun":      Sunday,
	"mon":      Monday,
	"tue":      Tuesday,
	"tues":     Tuesday,
	"wed":      Wednesday,
	"thu":      Thursday,
	"thur":     Thursday,
	"thurs":    Thursday,
	"fri":      Friday,
	"saturday": Shabbat,
	"sat":      Shabbat,
	"shabbos":  Shabbat,
	"shabbes":  Shabbat,
}

// AllWeekdays lists the days in calendar order.
func AllWeekdays() []Weekday {
	return []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Shabbat}
}

// WeekdayOf returns the label for t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// Valid reports whether d is one of the seven days.
func (d Weekday) Valid() bool { return d >= Sunday && d <= Shabbat }

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + itoa(int(d)) + ")"
	}
	return weekdayLabels[d]
}

// Add returns the day n days after d.
func (d Weekday) Add(n int) Weekday {
	return Weekday(((int(d)+n)%7 + 7) % 7)
}

// ParseWeekday accepts canonical labels and the alias table, case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, label := range weekdayLabels {
		if key == strings.ToLower(label) {
			return Weekday(i), nil
		}
	}
	if d, ok := weekdayAliases[key]; ok {
		return d, nil
	}
	return 0, invalid("day_of_week", s, "unknown weekday label")
}

// ParseWeekdays parses a list of labels, dropping duplicates.
func ParseWeekdays(labels []string) ([]Weekday, error) {
	days := make([]Weekday, 0, len(labels))
	seen := make(map[Weekday]bool, len(labels))
	for _, l := range labels {
		d, err := ParseWeekday(l)
		if err != nil {
			return nil, err
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	return days, nil
}

// WeekdayLabels renders days with their canonical labels.
func WeekdayLabels(days []Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, invalid("day_of_week", itoa(int(d)), "out of range")
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(b []byte) error {
	v, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ContainsDay reports whether days includes d.
func ContainsDay(days []Weekday, d Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}
