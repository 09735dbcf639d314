// Package calendar builds calendar artifacts for minyanim: Google Calendar
// template links, map directions and weekly ICS feeds.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

const (
	googleCalendarBase = "https://www.google.com/calendar/render"
	mapsDirectionsBase = "https://www.google.com/maps/dir/"
	mapsSearchBase     = "https://www.google.com/maps/search/"

	// utcStamp is the compact UTC form Google Calendar expects in dates=.
	utcStamp = "20060102T150405Z"
)

// Event is a single dated occurrence to put on a calendar.
type Event struct {
	Title    string
	Location string
	Details  string
	Start    time.Time
	Duration time.Duration
}

// Title renders "<prayer type> at <synagogue>".
func Title(m domain.Minyan) string {
	return m.PrayerType + " at " + m.SynagogueName
}

// GoogleCalendarURL returns an "add to calendar" template link.
func GoogleCalendarURL(e Event) string {
	start := e.Start.UTC()
	end := start.Add(e.Duration)

	var b strings.Builder
	b.WriteString(googleCalendarBase)
	b.WriteString("?action=TEMPLATE")
	b.WriteString("&text=" + escape(e.Title))
	b.WriteString("&dates=" + start.Format(utcStamp) + "/" + end.Format(utcStamp))
	if e.Details != "" {
		b.WriteString("&details=" + escape(e.Details))
	}
	b.WriteString("&location=" + escape(e.Location))
	return b.String()
}

// DirectionsURL prefers coordinates and falls back to an address search.
// It returns "" when neither is known.
func DirectionsURL(loc *domain.GeoPoint, address string) string {
	if loc != nil {
		return fmt.Sprintf("%s?api=1&destination=%s,%s", mapsDirectionsBase,
			formatCoord(loc.Lat), formatCoord(loc.Lon))
	}
	if strings.TrimSpace(address) == "" {
		return ""
	}
	return mapsSearchBase + "?api=1&query=" + escape(address)
}

// escape matches JavaScript's encodeURIComponent for the characters that
// appear in names and addresses.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func formatCoord(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}
