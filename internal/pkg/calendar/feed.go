package calendar

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

const productID = "-//kehillah//minyan schedule//EN"

const localTimestamp = "20060102T150405"

var rruleDays = map[domain.Weekday]rrule.Weekday{
	domain.Sunday:    rrule.SU,
	domain.Monday:    rrule.MO,
	domain.Tuesday:   rrule.TU,
	domain.Wednesday: rrule.WE,
	domain.Thursday:  rrule.TH,
	domain.Friday:    rrule.FR,
	domain.Shabbat:   rrule.SA,
}

// WeeklyRule builds the weekly recurrence of a minyan anchored at the start
// of the day containing from, in loc.
func WeeklyRule(m domain.Minyan, from time.Time, loc *time.Location) (*rrule.RRule, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	days := make([]rrule.Weekday, 0, len(m.Days))
	for _, d := range m.Days {
		days = append(days, rruleDays[d])
	}
	day := from.In(loc)
	anchor := time.Date(day.Year(), day.Month(), day.Day(), m.Time.Hour(), m.Time.Minute(), 0, 0, loc)
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: days,
		Dtstart:   anchor,
	})
}

// FeedOptions controls WeeklyFeed output.
type FeedOptions struct {
	Name     string
	Location *time.Location
	Duration time.Duration
	Now      time.Time
}

// WeeklyFeed renders an iCalendar document with one recurring VEVENT per
// minyan. The first occurrence is the next one at or after Now.
func WeeklyFeed(minyanim []domain.Minyan, opts FeedOptions) (string, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXWRTimezone(loc.String())
	addTimezone(cal, loc, opts.Now)

	for _, m := range minyanim {
		rule, err := WeeklyRule(m, opts.Now, loc)
		if err != nil {
			return "", fmt.Errorf("minyan %q: %w", m.ID, err)
		}
		first := rule.After(opts.Now.In(loc), true)
		if first.IsZero() {
			continue
		}

		ev := cal.AddEvent(m.ID + "@kehillah")
		ev.SetDtStampTime(opts.Now.UTC())
		if !m.CreatedAt.IsZero() {
			ev.SetCreatedTime(m.CreatedAt.UTC())
		}
		// Wall-clock times with TZID so BYDAY expands in the community's zone.
		tzid := ical.WithTZID(loc.String())
		ev.SetProperty(ical.ComponentPropertyDtStart, first.In(loc).Format(localTimestamp), tzid)
		ev.SetProperty(ical.ComponentPropertyDtEnd, first.Add(opts.Duration).In(loc).Format(localTimestamp), tzid)
		ev.SetSummary(Title(m))
		if m.Address != "" {
			ev.SetLocation(m.Address)
		}
		if m.Nusach != "" {
			ev.SetDescription("Nusach " + m.Nusach)
		}
		if m.Location != nil {
			ev.SetProperty(ical.ComponentPropertyGeo, fmt.Sprintf("%f;%f", m.Location.Lat, m.Location.Lon))
		}
		ev.AddProperty(ical.ComponentPropertyRrule, rule.OrigOptions.RRuleString())
	}
	return cal.Serialize(), nil
}

// transition is a UTC offset change of a zone.
type transition struct {
	at       time.Time
	from, to int
	name     string
}

// zoneTransitions lists the offset changes of loc during year, in order.
func zoneTransitions(loc *time.Location, year int) []transition {
	var out []transition
	t := time.Date(year, 1, 1, 0, 0, 0, 0, loc)
	end := time.Date(year+1, 1, 1, 0, 0, 0, 0, loc)
	_, prev := t.Zone()
	for t.Before(end) {
		next := t.Add(time.Hour)
		if _, off := next.Zone(); off != prev {
			at := t
			for at.Before(next) {
				if _, o := at.Zone(); o != prev {
					break
				}
				at = at.Add(time.Minute)
			}
			name, _ := at.Zone()
			out = append(out, transition{at: at, from: prev, to: off, name: name})
			prev = off
		}
		t = next
	}
	return out
}

// addTimezone adds a VTIMEZONE for loc built from the yearly transitions
// around at. Zones without daylight saving get one STANDARD block.
func addTimezone(cal *ical.Calendar, loc *time.Location, at time.Time) {
	tz := cal.AddTimezone(loc.String())
	year := at.In(loc).Year()

	trs := zoneTransitions(loc, year)
	if len(trs) == 0 {
		name, off := time.Date(year, 1, 1, 0, 0, 0, 0, loc).Zone()
		std := tz.AddStandard()
		observance(&std.ComponentBase, "19700101T000000", name, off, off, "")
		return
	}
	for _, tr := range trs {
		wall := tr.at.In(time.FixedZone("", tr.from))
		rule := yearlyRule(wall)
		if tr.to > tr.from {
			day := &ical.Daylight{}
			observance(&day.ComponentBase, wall.Format(localTimestamp), tr.name, tr.from, tr.to, rule)
			tz.Components = append(tz.Components, day)
			continue
		}
		std := tz.AddStandard()
		observance(&std.ComponentBase, wall.Format(localTimestamp), tr.name, tr.from, tr.to, rule)
	}
}

func observance(cb *ical.ComponentBase, start, name string, from, to int, rule string) {
	cb.SetProperty(ical.ComponentPropertyDtStart, start)
	cb.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetfrom), utcOffset(from))
	cb.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetto), utcOffset(to))
	if name != "" {
		cb.SetProperty(ical.ComponentProperty(ical.PropertyTzname), name)
	}
	if rule != "" {
		cb.SetProperty(ical.ComponentPropertyRrule, rule)
	}
}

// yearlyRule describes a transition as "the nth (or last) weekday of the
// month", the way zone rules are written.
func yearlyRule(wall time.Time) string {
	n := (wall.Day()-1)/7 + 1
	if wall.AddDate(0, 0, 7).Month() != wall.Month() {
		n = -1
	}
	wd := rruleDays[domain.WeekdayOf(wall)]
	opt := rrule.ROption{
		Freq:      rrule.YEARLY,
		Bymonth:   []int{int(wall.Month())},
		Byweekday: []rrule.Weekday{wd.Nth(n)},
	}
	return opt.RRuleString()
}

// utcOffset formats seconds east of UTC as +hhmm.
func utcOffset(sec int) string {
	sign := '+'
	if sec < 0 {
		sign = '-'
		sec = -sec
	}
	return fmt.Sprintf("%c%02d%02d", sign, sec/3600, sec%3600/60)
}
