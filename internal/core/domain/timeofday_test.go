package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

func TestParseTimeOfDay_Valid(t *testing.T) {
	cases := map[string]int{
		"06:30":    390,
		"6:30":     390,
		"00:00":    0,
		"23:59":    1439,
		"19:45":    1185,
		"6:30 AM":  390,
		"12:00 AM": 0,
		"12:15 PM": 735,
		"7:45 pm":  1185,
	}
	for in, want := range cases {
		got, err := domain.ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.Minutes(), in)
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, in := range []string{"", "24:00", "12:60", "630", "6:3", "abc", "13:00 PM", "0:15 AM", "6:30 XM", "-1:30", "06:30:00"} {
		_, err := domain.ParseTimeOfDay(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, domain.ErrValidation), in)
	}
}

func TestTimeOfDay_Format(t *testing.T) {
	tod, err := domain.NewTimeOfDay(6, 30)
	require.NoError(t, err)
	assert.Equal(t, "06:30", tod.String())
	assert.Equal(t, "6:30 AM", tod.Format12h())

	assert.Equal(t, "12:00 AM", domain.TimeOfDay(0).Format12h())
	assert.Equal(t, "12:05 PM", domain.TimeOfDay(725).Format12h())
	assert.Equal(t, "7:45 PM", domain.TimeOfDay(1185).Format12h())
}

func TestTimeOfDay_Valid(t *testing.T) {
	assert.True(t, domain.TimeOfDay(0).Valid())
	assert.True(t, domain.TimeOfDay(1439).Valid())
	assert.False(t, domain.TimeOfDay(1440).Valid())
	assert.False(t, domain.TimeOfDay(-1).Valid())
}

func TestMinuteOfDay_IgnoresSeconds(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 59, 0, time.UTC)
	assert.Equal(t, 720, domain.MinuteOfDay(now).Minutes())
}

func TestTimeOfDay_On(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	date := time.Date(2024, 3, 4, 23, 0, 0, 0, loc)
	got := domain.TimeOfDay(390).On(date, loc)
	assert.Equal(t, time.Date(2024, 3, 4, 6, 30, 0, 0, loc), got)
}
