// Package schedule resolves recurring weekly minyanim against a point in time.
//
// Every function is pure: the caller supplies "now" and the events, and the
// resolver never reads the clock or touches shared state, so it can be called
// on every tick of a broadcaster or every HTTP request.
package schedule

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database for containers without one

	"github.com/samirrijal/kehillah/internal/core/domain"
)

// DefaultTimezone is the community's local zone.
const DefaultTimezone = "America/Chicago"

// Rollover controls what Next returns once today's events have all passed.
type Rollover int

const (
	// RolloverNone reports "no next minyan" after the last event of the day.
	RolloverNone Rollover = iota
	// RolloverWeek searches forward up to seven days.
	RolloverWeek
)

func (r Rollover) String() string {
	if r == RolloverWeek {
		return "week"
	}
	return "none"
}

// ParseRollover accepts "none" (or empty) and "week".
func ParseRollover(s string) (Rollover, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RolloverNone, nil
	case "week":
		return RolloverWeek, nil
	}
	return RolloverNone, &domain.ValidationError{Field: "rollover", Value: s, Reason: "must be none or week"}
}

// Resolver orders a day's minyanim and finds the next one.
type Resolver struct {
	loc      *time.Location
	rollover Rollover
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLocation sets the zone in which days and times are interpreted.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithRollover sets the behaviour of Next after the day's last event.
func WithRollover(ro Rollover) Option {
	return func(r *Resolver) { r.rollover = ro }
}

// New creates a resolver in DefaultTimezone with RolloverNone unless overridden.
func New(opts ...Option) *Resolver {
	r := &Resolver{loc: defaultLocation(), rollover: RolloverNone}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultLocation() *time.Location {
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Location returns the resolver's zone.
func (r *Resolver) Location() *time.Location { return r.loc }

// Rollover returns the configured rollover mode.
func (r *Resolver) Rollover() Rollover { return r.rollover }

// Result bundles everything a "today" view needs.
type Result struct {
	Day   domain.Weekday   `json:"day"`
	Now   time.Time        `json:"now"`
	Today []domain.Minyan  `json:"today"`
	Next  *domain.Upcoming `json:"next"`
}

// Today returns the events recurring on now's weekday, earliest first.
// Equal times are ordered by PrayerType, then ID.
func (r *Resolver) Today(now time.Time, events []domain.Minyan) ([]domain.Minyan, error) {
	if err := validate(events); err != nil {
		return nil, err
	}
	now = now.In(r.loc)
	return onDay(events, domain.WeekdayOf(now)), nil
}

// Next returns the first event strictly after now. It returns nil, nil when
// nothing qualifies.
func (r *Resolver) Next(now time.Time, events []domain.Minyan) (*domain.Upcoming, error) {
	if err := validate(events); err != nil {
		return nil, err
	}
	now = now.In(r.loc)
	return r.next(now, onDay(events, domain.WeekdayOf(now)), events), nil
}

// Resolve computes today's list and the next event in one pass.
func (r *Resolver) Resolve(now time.Time, events []domain.Minyan) (*Result, error) {
	if err := validate(events); err != nil {
		return nil, err
	}
	now = now.In(r.loc)
	day := domain.WeekdayOf(now)
	today := onDay(events, day)
	return &Result{
		Day:   day,
		Now:   now,
		Today: today,
		Next:  r.next(now, today, events),
	}, nil
}

// UpcomingToday returns today's events that have not started yet.
// A limit of zero or less returns all of them.
func (r *Resolver) UpcomingToday(now time.Time, events []domain.Minyan, limit int) ([]domain.Minyan, error) {
	today, err := r.Today(now, events)
	if err != nil {
		return nil, err
	}
	cur := domain.MinuteOfDay(now.In(r.loc))
	i, _ := slices.BinarySearchFunc(today, cur+1, func(m domain.Minyan, t domain.TimeOfDay) int {
		return cmp.Compare(m.Time, t)
	})
	out := today[i:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// StartingWithin returns today's events starting between now and now+window,
// both ends inclusive, at minute resolution.
func (r *Resolver) StartingWithin(now time.Time, events []domain.Minyan, window time.Duration) ([]domain.Minyan, error) {
	today, err := r.Today(now, events)
	if err != nil {
		return nil, err
	}
	cur := domain.MinuteOfDay(now.In(r.loc))
	limit := int(window / time.Minute)
	out := make([]domain.Minyan, 0, len(today))
	for _, m := range today {
		diff := m.Time.Minutes() - cur.Minutes()
		if diff >= 0 && diff <= limit {
			out = append(out, m)
		}
	}
	return out, nil
}

// NextOccurrence returns the next start of a single minyan, looking up to a
// week ahead regardless of the rollover setting.
func (r *Resolver) NextOccurrence(now time.Time, m domain.Minyan) (*domain.Upcoming, error) {
	if err := validate([]domain.Minyan{m}); err != nil {
		return nil, err
	}
	now = now.In(r.loc)
	today := domain.WeekdayOf(now)
	cur := domain.MinuteOfDay(now)
	for d := 0; d <= 7; d++ {
		day := today.Add(d)
		if !domain.ContainsDay(m.Days, day) {
			continue
		}
		if d == 0 && m.Time <= cur {
			continue
		}
		return r.upcoming(now, m, d, cur), nil
	}
	return nil, nil
}

func (r *Resolver) next(now time.Time, today, all []domain.Minyan) *domain.Upcoming {
	cur := domain.MinuteOfDay(now)
	for _, m := range today {
		if m.Time > cur {
			return r.upcoming(now, m, 0, cur)
		}
	}
	if r.rollover != RolloverWeek {
		return nil
	}
	day := domain.WeekdayOf(now)
	for d := 1; d <= 7; d++ {
		if later := onDay(all, day.Add(d)); len(later) > 0 {
			return r.upcoming(now, later[0], d, cur)
		}
	}
	return nil
}

func (r *Resolver) upcoming(now time.Time, m domain.Minyan, dayOffset int, cur domain.TimeOfDay) *domain.Upcoming {
	date := now.AddDate(0, 0, dayOffset)
	return &domain.Upcoming{
		Minyan:       m,
		Day:          domain.WeekdayOf(date),
		StartsAt:     m.Time.On(date, r.loc),
		MinutesUntil: dayOffset*domain.MinutesPerDay + m.Time.Minutes() - cur.Minutes(),
	}
}

func onDay(events []domain.Minyan, day domain.Weekday) []domain.Minyan {
	out := make([]domain.Minyan, 0, len(events))
	for _, m := range events {
		if domain.ContainsDay(m.Days, day) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, compareMinyan)
	return out
}

func compareMinyan(a, b domain.Minyan) int {
	return cmp.Or(
		cmp.Compare(a.Time, b.Time),
		cmp.Compare(a.PrayerType, b.PrayerType),
		cmp.Compare(a.ID, b.ID),
	)
}

func validate(events []domain.Minyan) error {
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return fmt.Errorf("minyan %q: %w", events[i].ID, err)
		}
	}
	return nil
}
