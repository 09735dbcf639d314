package schedule_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/schedule"
)

var chicago = mustLoad("America/Chicago")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// 2024-03-04 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, chicago)
}

func minyan(id, prayer string, tod int, days ...domain.Weekday) domain.Minyan {
	return domain.Minyan{ID: id, PrayerType: prayer, Time: domain.TimeOfDay(tod), Days: days, Active: true}
}

func mondayPair() []domain.Minyan {
	return []domain.Minyan{
		minyan("b", "Maariv", 19*60+45, domain.Monday),
		minyan("a", "Shacharit", 6*60+30, domain.Monday),
	}
}

func ids(ms []domain.Minyan) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestResolve_MondayNoon(t *testing.T) {
	r := schedule.New()
	res, err := r.Resolve(monday(12, 0), mondayPair())
	require.NoError(t, err)

	assert.Equal(t, domain.Monday, res.Day)
	assert.Equal(t, []string{"a", "b"}, ids(res.Today))
	require.NotNil(t, res.Next)
	assert.Equal(t, "b", res.Next.Minyan.ID)
	assert.Equal(t, 465, res.Next.MinutesUntil)
	assert.Equal(t, monday(19, 45), res.Next.StartsAt)
}

func TestNext_NoneAfterLastEvent(t *testing.T) {
	r := schedule.New()
	next, err := r.Next(monday(20, 0), mondayPair())
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNext_StrictlyAfterNow(t *testing.T) {
	r := schedule.New()
	next, err := r.Next(monday(19, 45), mondayPair())
	require.NoError(t, err)
	assert.Nil(t, next, "an event starting this minute is not next")

	next, err = r.Next(monday(19, 44).Add(59*time.Second), mondayPair())
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 1, next.MinutesUntil)
}

func TestNext_RolloverWeek(t *testing.T) {
	r := schedule.New(schedule.WithRollover(schedule.RolloverWeek))

	events := append(mondayPair(), minyan("c", "Mincha", 13*60+30, domain.Wednesday))
	next, err := r.Next(monday(20, 0), events)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "c", next.Minyan.ID)
	assert.Equal(t, domain.Wednesday, next.Day)
	assert.Equal(t, 2*1440+13*60+30-20*60, next.MinutesUntil)
	assert.Equal(t, time.Date(2024, 3, 6, 13, 30, 0, 0, chicago), next.StartsAt)

	// Only Monday events: rolls to next Monday's first one.
	next, err = r.Next(monday(20, 0), mondayPair())
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "a", next.Minyan.ID)
	assert.Equal(t, 7*1440+390-1200, next.MinutesUntil)
}

func TestToday_UsesResolverLocation(t *testing.T) {
	r := schedule.New(schedule.WithLocation(chicago))
	// 03:00 UTC Tuesday is 21:00 Monday in Chicago.
	now := time.Date(2024, 3, 5, 3, 0, 0, 0, time.UTC)
	res, err := r.Resolve(now, mondayPair())
	require.NoError(t, err)
	assert.Equal(t, domain.Monday, res.Day)
	assert.Len(t, res.Today, 2)
}

func TestToday_ShabbatLabel(t *testing.T) {
	r := schedule.New()
	sat := time.Date(2024, 3, 9, 8, 0, 0, 0, chicago)
	days, err := domain.ParseWeekdays([]string{"Saturday"})
	require.NoError(t, err)

	events := []domain.Minyan{{ID: "s", PrayerType: "Shacharit", Time: 9 * 60, Days: days}}
	today, err := r.Today(sat, events)
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, ids(today))
}

func TestToday_TieBreak(t *testing.T) {
	r := schedule.New()
	events := []domain.Minyan{
		minyan("2", "Mincha", 600, domain.Monday),
		minyan("3", "Maariv", 600, domain.Monday),
		minyan("1", "Mincha", 600, domain.Monday),
	}
	today, err := r.Today(monday(7, 0), events)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, ids(today))
}

func TestResolve_Empty(t *testing.T) {
	r := schedule.New()
	res, err := r.Resolve(monday(9, 0), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Today)
	assert.Nil(t, res.Next)
}

func TestResolve_RejectsMalformed(t *testing.T) {
	r := schedule.New()
	events := append(mondayPair(), domain.Minyan{ID: "broken", Time: 2000, Days: []domain.Weekday{domain.Monday}})

	_, err := r.Resolve(monday(9, 0), events)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "broken")

	_, err = r.Next(monday(9, 0), []domain.Minyan{{ID: "nodays", Time: 60}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpcomingToday(t *testing.T) {
	r := schedule.New()
	events := []domain.Minyan{
		minyan("s", "Shacharit", 7*60, domain.Monday),
		minyan("m", "Mincha", 13*60, domain.Monday),
		minyan("e", "Maariv", 20*60, domain.Monday),
		minyan("x", "Mincha", 14*60, domain.Tuesday),
	}
	up, err := r.UpcomingToday(monday(7, 0), events, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "e"}, ids(up))

	up, err = r.UpcomingToday(monday(7, 0), events, 0)
	require.NoError(t, err)
	assert.Len(t, up, 2)

	up, err = r.UpcomingToday(monday(21, 0), events, 2)
	require.NoError(t, err)
	assert.Empty(t, up)
}

func TestStartingWithin(t *testing.T) {
	r := schedule.New()
	events := []domain.Minyan{
		minyan("now", "Mincha", 12*60, domain.Monday),
		minyan("edge", "Mincha", 12*60+30, domain.Monday),
		minyan("late", "Maariv", 12*60+31, domain.Monday),
		minyan("past", "Shacharit", 11*60+59, domain.Monday),
	}
	soon, err := r.StartingWithin(monday(12, 0), events, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"now", "edge"}, ids(soon))
}

func TestNextOccurrence(t *testing.T) {
	r := schedule.New()
	m := minyan("f", "Mincha", 18*60, domain.Friday)

	up, err := r.NextOccurrence(monday(12, 0), m)
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, domain.Friday, up.Day)
	assert.Equal(t, time.Date(2024, 3, 8, 18, 0, 0, 0, chicago), up.StartsAt)
	assert.Equal(t, 4*1440+6*60, up.MinutesUntil)

	// Same weekday, already passed: one week later.
	mon := minyan("m", "Shacharit", 7*60, domain.Monday)
	up, err = r.NextOccurrence(monday(12, 0), mon)
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, time.Date(2024, 3, 11, 7, 0, 0, 0, chicago), up.StartsAt)
}

func TestParseRollover(t *testing.T) {
	ro, err := schedule.ParseRollover("WEEK")
	require.NoError(t, err)
	assert.Equal(t, schedule.RolloverWeek, ro)

	ro, err = schedule.ParseRollover("")
	require.NoError(t, err)
	assert.Equal(t, schedule.RolloverNone, ro)

	_, err = schedule.ParseRollover("day")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProperties_OrderAndNext(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	r := schedule.New()

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(12)
		events := make([]domain.Minyan, n)
		for i := range events {
			days := []domain.Weekday{domain.Weekday(rng.Intn(7))}
			if rng.Intn(2) == 0 {
				days = append(days, domain.Monday)
			}
			events[i] = domain.Minyan{
				ID:         string(rune('a' + i)),
				PrayerType: []string{"Shacharit", "Mincha", "Maariv"}[rng.Intn(3)],
				Time:       domain.TimeOfDay(rng.Intn(domain.MinutesPerDay)),
				Days:       days,
			}
		}
		now := monday(0, 0).Add(time.Duration(rng.Intn(domain.MinutesPerDay)) * time.Minute)
		cur := domain.MinuteOfDay(now)

		res, err := r.Resolve(now, events)
		require.NoError(t, err)

		for i := 1; i < len(res.Today); i++ {
			assert.LessOrEqual(t, res.Today[i-1].Time, res.Today[i].Time)
		}
		for _, m := range res.Today {
			assert.True(t, domain.ContainsDay(m.Days, domain.Monday))
		}

		if res.Next == nil {
			for _, m := range res.Today {
				assert.LessOrEqual(t, m.Time, cur)
			}
			continue
		}
		assert.Greater(t, res.Next.Minyan.Time, cur)
		assert.Equal(t, res.Next.Minyan.Time.Minutes()-cur.Minutes(), res.Next.MinutesUntil)
		for _, m := range res.Today {
			if m.Time > cur {
				assert.GreaterOrEqual(t, m.Time, res.Next.Minyan.Time)
			}
		}
	}
}
