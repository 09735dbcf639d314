package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/core/proximity"
	"github.com/samirrijal/kehillah/internal/core/schedule"
	"github.com/samirrijal/kehillah/internal/pkg/calendar"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
	"github.com/samirrijal/kehillah/internal/pkg/signals"
	"github.com/samirrijal/kehillah/internal/pkg/telemetry"
)

// Quick filters for the today view.
const (
	FilterAll       = "all"
	FilterSoon      = "soon"
	FilterNearby    = "nearby"
	FilterFavorites = "favorites"
)

const cacheKeyActiveMinyanim = "minyanim:active"

// ParseQuickFilter normalises a quick filter name. Empty means all;
// "within10" is the label the mobile client sends for nearby.
func ParseQuickFilter(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterSoon:
		return FilterSoon, nil
	case FilterNearby, "within10":
		return FilterNearby, nil
	case FilterFavorites:
		return FilterFavorites, nil
	}
	return "", &domain.ValidationError{Field: "filter", Value: s, Reason: "must be all, soon, nearby or favorites"}
}

// MinyanFilter narrows the today view.
type MinyanFilter struct {
	Nusach string // "" or "All" matches every nusach
	Quick  string
	User   *domain.GeoPoint
	Email  string // required by the favorites filter
}

// TodayView is today's filtered schedule plus the next upcoming minyan.
type TodayView struct {
	Day              domain.Weekday   `json:"day"`
	Now              time.Time        `json:"now"`
	Minyanim         []domain.Minyan  `json:"minyanim"`
	Next             *domain.Upcoming `json:"next"`
	Reference        *domain.GeoPoint `json:"reference,omitempty"`
	FallbackLocation bool             `json:"fallback_location,omitempty"`
}

// CalendarLinks are the outbound links for a minyan's next occurrence.
type CalendarLinks struct {
	Next           *domain.Upcoming `json:"next"`
	GoogleCalendar string           `json:"google_calendar_url,omitempty"`
	Directions     string           `json:"directions_url,omitempty"`
}

// MinyanOptions configures a MinyanService.
type MinyanOptions struct {
	Resolver      *schedule.Resolver
	Policy        proximity.Policy
	NearbyRadius  float64
	SoonWindow    time.Duration
	EventDuration time.Duration
	Clock         func() time.Time
}

// MinyanService answers schedule questions about minyanim.
type MinyanService struct {
	minyanim  ports.MinyanRepository
	favorites ports.FavoriteRepository
	cache     ports.CacheService
	opts      MinyanOptions
}

// NewMinyanService creates a new MinyanService. Zero options fall back to
// the directory defaults.
func NewMinyanService(minyanim ports.MinyanRepository, favorites ports.FavoriteRepository, cache ports.CacheService, opts MinyanOptions) *MinyanService {
	if opts.Resolver == nil {
		opts.Resolver = schedule.New()
	}
	if opts.NearbyRadius <= 0 {
		opts.NearbyRadius = 5
	}
	if opts.SoonWindow <= 0 {
		opts.SoonWindow = 30 * time.Minute
	}
	if opts.EventDuration <= 0 {
		opts.EventDuration = 30 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &MinyanService{minyanim: minyanim, favorites: favorites, cache: cache, opts: opts}
}

// Resolver exposes the configured resolver.
func (s *MinyanService) Resolver() *schedule.Resolver { return s.opts.Resolver }

// Today returns today's minyanim after the nusach and quick filters. Next is
// resolved from the nusach-filtered list so the banner ignores the quick
// filter.
func (s *MinyanService) Today(ctx context.Context, f MinyanFilter) (view *TodayView, err error) {
	quick, err := ParseQuickFilter(f.Quick)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartSpan(ctx, "MinyanService.Today",
		telemetry.AttrNusach.String(f.Nusach),
		telemetry.AttrFilter.String(quick),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	all, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	events := byNusach(all, f.Nusach)

	now := s.opts.Clock()
	res, err := s.opts.Resolver.Resolve(now, events)
	if err != nil {
		metrics.ScheduleResolutions.WithLabelValues("error").Inc()
		return nil, err
	}
	observeNext(res.Next)

	view = &TodayView{Day: res.Day, Now: res.Now, Next: res.Next}
	today := res.Today

	switch quick {
	case FilterSoon:
		today, err = s.opts.Resolver.StartingWithin(now, events, s.opts.SoonWindow)
		if err != nil {
			return nil, err
		}
	case FilterFavorites:
		today, err = s.favoriteSynagogues(ctx, f.Email, today)
		if err != nil {
			return nil, err
		}
	}

	if quick == FilterNearby || f.User != nil {
		ref, fallback, err := s.opts.Policy.Reference(f.User)
		if err != nil {
			return nil, err
		}
		if fallback {
			metrics.ProximityFallbacks.WithLabelValues("minyan").Inc()
		}
		radius := 0.0
		if quick == FilterNearby {
			radius = s.opts.NearbyRadius
		}
		today, err = withDistances(ref, today, radius)
		if err != nil {
			return nil, err
		}
		span.SetAttributes(telemetry.AttrFallback.Bool(fallback))
		view.Reference = &ref
		view.FallbackLocation = fallback
	}

	view.Minyanim = today
	return view, nil
}

// Next returns the next minyan for a nusach, or nil when none remains.
func (s *MinyanService) Next(ctx context.Context, nusach string) (next *domain.Upcoming, err error) {
	ctx, span := telemetry.StartSpan(ctx, "MinyanService.Next", telemetry.AttrNusach.String(nusach))
	defer func() { telemetry.EndSpan(span, err) }()

	all, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	next, err = s.opts.Resolver.Next(s.opts.Clock(), byNusach(all, nusach))
	if err != nil {
		metrics.ScheduleResolutions.WithLabelValues("error").Inc()
		return nil, err
	}
	observeNext(next)
	return next, nil
}

// NextAtSynagogue returns the next few minyanim today at one synagogue.
func (s *MinyanService) NextAtSynagogue(ctx context.Context, synagogueID string, limit int) ([]domain.Minyan, error) {
	if limit <= 0 {
		limit = 2
	}
	if limit > 10 {
		limit = 10
	}
	ms, err := s.minyanim.ListBySynagogue(ctx, synagogueID)
	if err != nil {
		return nil, err
	}
	active := ms[:0:0]
	for _, m := range ms {
		if m.Active {
			active = append(active, m)
		}
	}
	return s.opts.Resolver.UpcomingToday(s.opts.Clock(), active, limit)
}

// GetByID returns a single minyan.
func (s *MinyanService) GetByID(ctx context.Context, id string) (*domain.Minyan, error) {
	return readThrough(ctx, s.cache, "minyan", "minyanim:id:"+id, ttlSingle, func() (*domain.Minyan, error) {
		return s.minyanim.GetByID(ctx, id)
	})
}

// ListBySynagogue returns every minyan of a synagogue, active or not.
func (s *MinyanService) ListBySynagogue(ctx context.Context, synagogueID string) ([]domain.Minyan, error) {
	return s.minyanim.ListBySynagogue(ctx, synagogueID)
}

// Save validates and stores a minyan, assigning an ID when missing.
func (s *MinyanService) Save(ctx context.Context, m *domain.Minyan) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "MinyanService.Save", telemetry.AttrSynagogueID.String(m.SynagogueID))
	defer func() { telemetry.EndSpan(span, err) }()

	if m.ID == "" {
		m.ID = uuid.NewString()
	} else if _, err := uuid.Parse(m.ID); err != nil {
		return &domain.ValidationError{Field: "id", Value: m.ID, Reason: "must be a UUID"}
	}
	if _, err := uuid.Parse(m.SynagogueID); err != nil {
		return &domain.ValidationError{Field: "synagogue_id", Value: m.SynagogueID, Reason: "must be a UUID"}
	}
	m.PrayerType = strings.TrimSpace(m.PrayerType)
	if m.PrayerType == "" {
		return &domain.ValidationError{Field: "prayer_type", Reason: "required"}
	}
	if err := m.Validate(); err != nil {
		return err
	}
	span.SetAttributes(telemetry.AttrMinyanID.String(m.ID))

	if err := s.minyanim.Upsert(ctx, m); err != nil {
		return fmt.Errorf("save minyan: %w", err)
	}
	s.changed(ctx, ports.MinyanChange{MinyanID: m.ID, SynagogueID: m.SynagogueID})
	return nil
}

// Delete removes a minyan.
func (s *MinyanService) Delete(ctx context.Context, id string) error {
	if err := s.minyanim.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, ports.MinyanChange{MinyanID: id, Deleted: true})
	return nil
}

// Invalidate drops cached schedule data after a change made elsewhere.
func (s *MinyanService) Invalidate(ctx context.Context, minyanID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, cacheKeyActiveMinyanim)
	if minyanID != "" {
		_ = s.cache.Delete(ctx, "minyanim:id:"+minyanID)
	}
}

// CalendarLinks builds the add-to-calendar and directions links for the
// next occurrence of a minyan.
func (s *MinyanService) CalendarLinks(ctx context.Context, id string) (*CalendarLinks, error) {
	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.opts.Resolver.NextOccurrence(s.opts.Clock(), *m)
	if err != nil {
		return nil, err
	}
	links := &CalendarLinks{
		Next:       next,
		Directions: calendar.DirectionsURL(m.Location, m.Address),
	}
	if next != nil {
		links.GoogleCalendar = calendar.GoogleCalendarURL(calendar.Event{
			Title:    calendar.Title(*m),
			Location: m.Address,
			Start:    next.StartsAt,
			Duration: s.opts.EventDuration,
		})
	}
	return links, nil
}

// WeeklyFeed renders the active minyanim of a synagogue as an ICS feed.
func (s *MinyanService) WeeklyFeed(ctx context.Context, synagogueID, name string) (string, error) {
	ms, err := s.minyanim.ListBySynagogue(ctx, synagogueID)
	if err != nil {
		return "", err
	}
	active := ms[:0:0]
	for _, m := range ms {
		if m.Active {
			active = append(active, m)
		}
	}
	return calendar.WeeklyFeed(active, calendar.FeedOptions{
		Name:     name,
		Location: s.opts.Resolver.Location(),
		Duration: s.opts.EventDuration,
		Now:      s.opts.Clock(),
	})
}

func (s *MinyanService) active(ctx context.Context) ([]domain.Minyan, error) {
	return readThrough(ctx, s.cache, "minyanim_active", cacheKeyActiveMinyanim, ttlActiveMinyanim, func() ([]domain.Minyan, error) {
		return s.minyanim.ListActive(ctx)
	})
}

func (s *MinyanService) changed(ctx context.Context, c ports.MinyanChange) {
	s.Invalidate(ctx, c.MinyanID)
	c.At = s.opts.Clock()
	signals.EmitMinyanChanged(ctx, c)
}

func (s *MinyanService) favoriteSynagogues(ctx context.Context, email string, ms []domain.Minyan) ([]domain.Minyan, error) {
	if email == "" {
		return nil, &domain.ValidationError{Field: "email", Reason: "required by the favorites filter"}
	}
	favs, err := favoriteIDs(ctx, s.favorites, email, domain.FavoriteSynagogue)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(favs))
	for _, id := range favs {
		ids[id] = true
	}
	out := make([]domain.Minyan, 0, len(ms))
	for _, m := range ms {
		if ids[m.SynagogueID] {
			out = append(out, m)
		}
	}
	return out, nil
}

// withDistances annotates located minyanim with their rounded distance,
// keeping time order. A positive radius also drops everything beyond it,
// including unlocated entries.
func withDistances(ref domain.GeoPoint, ms []domain.Minyan, radius float64) ([]domain.Minyan, error) {
	matches, err := proximity.Measure(ref, ms)
	if err != nil {
		return nil, err
	}
	metrics.ProximityCandidates.WithLabelValues("minyan", "measured").Add(float64(len(matches)))
	metrics.ProximityCandidates.WithLabelValues("minyan", "unlocated").Add(float64(len(ms) - len(matches)))

	dist := make(map[string]float64, len(matches))
	for _, m := range matches {
		dist[m.Item.ID] = m.Distance
	}
	out := make([]domain.Minyan, 0, len(ms))
	for _, m := range ms {
		d, ok := dist[m.ID]
		if radius > 0 && (!ok || d > radius) {
			continue
		}
		if ok {
			r := proximity.RoundTenth(d)
			m.Distance = &r
		}
		out = append(out, m)
	}
	return out, nil
}

func byNusach(ms []domain.Minyan, nusach string) []domain.Minyan {
	if nusach == "" || strings.EqualFold(nusach, "all") {
		return ms
	}
	out := make([]domain.Minyan, 0, len(ms))
	for _, m := range ms {
		if strings.EqualFold(m.Nusach, nusach) {
			out = append(out, m)
		}
	}
	return out
}

func observeNext(next *domain.Upcoming) {
	if next == nil {
		metrics.ScheduleResolutions.WithLabelValues("none").Inc()
		return
	}
	metrics.ScheduleResolutions.WithLabelValues("next").Inc()
}
