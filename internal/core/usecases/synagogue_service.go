package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/core/proximity"
	"github.com/samirrijal/kehillah/internal/pkg/geospatial"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
	"github.com/samirrijal/kehillah/internal/pkg/telemetry"
)

// NearbyResult lists synagogues nearest first.
type NearbyResult struct {
	Reference  domain.GeoPoint    `json:"reference"`
	Fallback   bool               `json:"fallback_location"`
	Radius     float64            `json:"radius_miles"`
	Synagogues []domain.Synagogue `json:"synagogues"`
}

// SynagogueService handles synagogue-related business logic.
type SynagogueService struct {
	synagogues ports.SynagogueRepository
	cache      ports.CacheService
	policy     proximity.Policy
	radius     float64
	maxRadius  float64
}

// NewSynagogueService creates a new SynagogueService. radius is the default
// search radius and maxRadius the cap applied to caller-supplied radii.
func NewSynagogueService(synagogues ports.SynagogueRepository, cache ports.CacheService, policy proximity.Policy, radius, maxRadius float64) *SynagogueService {
	if radius <= 0 {
		radius = 5
	}
	if maxRadius < radius {
		maxRadius = radius
	}
	return &SynagogueService{synagogues: synagogues, cache: cache, policy: policy, radius: radius, maxRadius: maxRadius}
}

// Nearby returns located synagogues within radius miles of the user, or of
// the fallback point when the user has no location.
func (s *SynagogueService) Nearby(ctx context.Context, user *domain.GeoPoint, radius float64, limit int) (res *NearbyResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "SynagogueService.Nearby")
	defer func() { telemetry.EndSpan(span, err) }()

	ref, fallback, err := s.policy.Reference(user)
	if err != nil {
		return nil, err
	}
	if fallback {
		metrics.ProximityFallbacks.WithLabelValues("synagogue").Inc()
	}
	span.SetAttributes(telemetry.AttrFallback.Bool(fallback))

	if radius <= 0 {
		radius = s.radius
	}
	if radius > s.maxRadius {
		radius = s.maxRadius
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("synagogues:nearby:%.4f:%.4f:%.1f:%d", ref.Lat, ref.Lon, radius, limit)
	found, err := readThrough(ctx, s.cache, "synagogues_nearby", cacheKey, ttlNearby, func() ([]domain.Synagogue, error) {
		return s.nearest(ctx, ref, radius, limit)
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.AttrCandidates.Int(len(found)))

	return &NearbyResult{Reference: ref, Fallback: fallback, Radius: radius, Synagogues: found}, nil
}

func (s *SynagogueService) nearest(ctx context.Context, ref domain.GeoPoint, radius float64, limit int) ([]domain.Synagogue, error) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(ref.Lat, ref.Lon, radius)
	candidates, err := s.synagogues.InBounds(ctx, domain.Bounds{
		MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon,
	})
	if err != nil {
		return nil, err
	}
	matches, err := proximity.Nearest(ref, candidates, radius, limit)
	if err != nil {
		return nil, err
	}
	metrics.ProximityCandidates.WithLabelValues("synagogue", "measured").Add(float64(len(candidates)))

	out := make([]domain.Synagogue, len(matches))
	for i, m := range matches {
		d := proximity.RoundTenth(m.Distance)
		out[i] = m.Item
		out[i].Distance = &d
	}
	return out, nil
}

// Search finds synagogues by name, address or rabbi.
func (s *SynagogueService) Search(ctx context.Context, query string, limit int) ([]domain.Synagogue, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.ValidationError{Field: "q", Reason: "search query must not be empty"}
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.synagogues.Search(ctx, query, limit)
}

// List returns one page of synagogues and the total count.
func (s *SynagogueService) List(ctx context.Context, nusach string, offset, limit int) ([]domain.Synagogue, int, error) {
	if strings.EqualFold(nusach, "all") {
		nusach = ""
	}
	return s.synagogues.List(ctx, nusach, offset, limit)
}

// GetByID returns a single synagogue.
func (s *SynagogueService) GetByID(ctx context.Context, id string) (*domain.Synagogue, error) {
	return readThrough(ctx, s.cache, "synagogue", "synagogues:id:"+id, ttlSingle, func() (*domain.Synagogue, error) {
		return s.synagogues.GetByID(ctx, id)
	})
}

// Save validates and stores a synagogue, assigning an ID when missing.
func (s *SynagogueService) Save(ctx context.Context, syn *domain.Synagogue) error {
	if syn.ID == "" {
		syn.ID = uuid.NewString()
	}
	syn.Name = strings.TrimSpace(syn.Name)
	if syn.Name == "" {
		return &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if syn.Location != nil {
		if err := syn.Location.Validate(); err != nil {
			return err
		}
	}
	if err := s.synagogues.Upsert(ctx, syn); err != nil {
		return fmt.Errorf("save synagogue: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "synagogues:id:"+syn.ID)
	}
	return nil
}
