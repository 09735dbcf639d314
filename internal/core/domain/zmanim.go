package domain

import "time"

// DateLayout is the calendar date format used for zmanim keys.
const DateLayout = "2006-01-02"

// Zman keys in chronological order through the day.
var ZmanKeys = []string{
	"alot_hashachar",
	"misheyakir",
	"sunrise",
	"shema_mga",
	"shema_gra",
	"tefilla_mga",
	"tefilla_gra",
	"chatzot",
	"mincha_gedola",
	"mincha_ketana",
	"plag_hamincha",
	"sunset",
	"tzait_hakochavim",
}

// DefaultZmanKeys is the selection shown when the caller asks for none.
var DefaultZmanKeys = []string{"sunrise", "shema_gra", "sunset", "tzait_hakochavim"}

// Zmanim holds the halachic times for one calendar date.
type Zmanim struct {
	Date       string               `json:"date"`
	HebrewDate string               `json:"hebrew_date,omitempty"`
	DafYomi    string               `json:"daf_yomi,omitempty"`
	Times      map[string]TimeOfDay `json:"times"`
}

// ZmanTime is one named time in display order.
type ZmanTime struct {
	Key  string    `json:"key"`
	Time TimeOfDay `json:"time"`
}

// IsZmanKey reports whether k names a known zman.
func IsZmanKey(k string) bool {
	for _, z := range ZmanKeys {
		if z == k {
			return true
		}
	}
	return false
}

// ParseDate validates a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, invalid("date", s, "expected YYYY-MM-DD")
	}
	return t, nil
}

// Validate checks the date and every time entry.
func (z Zmanim) Validate() error {
	if _, err := ParseDate(z.Date); err != nil {
		return err
	}
	for k, t := range z.Times {
		if !IsZmanKey(k) {
			return invalid("zman", k, "unknown zman key")
		}
		if !t.Valid() {
			return invalid("zman", k, "time of day out of range")
		}
	}
	return nil
}

// Select returns the requested zmanim in canonical order, skipping missing
// entries. An empty selection means DefaultZmanKeys.
func (z Zmanim) Select(keys []string) ([]ZmanTime, error) {
	if len(keys) == 0 {
		keys = DefaultZmanKeys
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !IsZmanKey(k) {
			return nil, invalid("keys", k, "unknown zman key")
		}
		want[k] = true
	}
	out := make([]ZmanTime, 0, len(keys))
	for _, k := range ZmanKeys {
		if !want[k] {
			continue
		}
		if t, ok := z.Times[k]; ok {
			out = append(out, ZmanTime{Key: k, Time: t})
		}
	}
	return out, nil
}
