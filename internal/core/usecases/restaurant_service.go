package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/core/proximity"
	"github.com/samirrijal/kehillah/internal/pkg/metrics"
)

// RestaurantFilter narrows the restaurant list. Zero fields match all.
type RestaurantFilter struct {
	Search        string
	Type          string
	Certification string
	PriceRange    string
	FavoritesOf   string  // user email; restricts to their favorites
	MaxDistance   float64 // miles; needs a reference point
	User          *domain.GeoPoint
}

// RestaurantService handles restaurant-related business logic.
type RestaurantService struct {
	restaurants ports.RestaurantRepository
	favorites   ports.FavoriteRepository
	policy      proximity.Policy
}

// NewRestaurantService creates a new RestaurantService.
func NewRestaurantService(restaurants ports.RestaurantRepository, favorites ports.FavoriteRepository, policy proximity.Policy) *RestaurantService {
	return &RestaurantService{restaurants: restaurants, favorites: favorites, policy: policy}
}

// List returns restaurants matching every filter. With a distance filter or
// a user location the result is annotated with distances, nearest first.
// Without a distance filter, restaurants lacking coordinates follow the
// located ones in their stored order.
func (s *RestaurantService) List(ctx context.Context, f RestaurantFilter) ([]domain.Restaurant, error) {
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))
	if f.Type == "all" {
		f.Type = ""
	}
	if f.Type != "" && !domain.ValidRestaurantType(f.Type) {
		return nil, &domain.ValidationError{Field: "type", Value: f.Type, Reason: "must be meat, dairy or pareve"}
	}
	if strings.EqualFold(f.Certification, "all") {
		f.Certification = ""
	}
	if strings.EqualFold(f.PriceRange, "all") {
		f.PriceRange = ""
	}
	if f.PriceRange != "" && !domain.ValidPriceRange(f.PriceRange) {
		return nil, &domain.ValidationError{Field: "price", Value: f.PriceRange, Reason: "must be $ to $$$$"}
	}
	if f.MaxDistance < 0 {
		return nil, &domain.ValidationError{Field: "max_distance", Value: fmt.Sprint(f.MaxDistance), Reason: "must not be negative"}
	}

	q := ports.RestaurantQuery{
		Search:        strings.TrimSpace(f.Search),
		Type:          f.Type,
		Certification: f.Certification,
		PriceRange:    f.PriceRange,
	}
	if f.FavoritesOf != "" {
		ids, err := favoriteIDs(ctx, s.favorites, f.FavoritesOf, domain.FavoriteRestaurant)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.Restaurant{}, nil
		}
		q.IDs = ids
	}

	rs, err := s.restaurants.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if f.MaxDistance == 0 && f.User == nil {
		return rs, nil
	}

	ref, fallback, err := s.policy.Reference(f.User)
	if err != nil {
		return nil, err
	}
	if fallback {
		metrics.ProximityFallbacks.WithLabelValues("restaurant").Inc()
	}
	matches, err := proximity.Nearest(ref, rs, f.MaxDistance, 0)
	if err != nil {
		return nil, err
	}
	metrics.ProximityCandidates.WithLabelValues("restaurant", "measured").Add(float64(len(matches)))

	out := make([]domain.Restaurant, len(matches), len(rs))
	for i, m := range matches {
		d := proximity.RoundTenth(m.Distance)
		out[i] = m.Item
		out[i].Distance = &d
	}
	if f.MaxDistance == 0 {
		for _, r := range rs {
			if r.Coordinates() == nil {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

// GetByID returns a single restaurant.
func (s *RestaurantService) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	return s.restaurants.GetByID(ctx, id)
}

// Save validates and stores a restaurant, assigning an ID when missing.
func (s *RestaurantService) Save(ctx context.Context, r *domain.Restaurant) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if strings.TrimSpace(r.Name) == "" {
		return &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if !domain.ValidRestaurantType(r.Type) {
		return &domain.ValidationError{Field: "type", Value: r.Type, Reason: "must be meat, dairy or pareve"}
	}
	if r.PriceRange != "" && !domain.ValidPriceRange(r.PriceRange) {
		return &domain.ValidationError{Field: "price_range", Value: r.PriceRange, Reason: "must be $ to $$$$"}
	}
	if r.Location != nil {
		if err := r.Location.Validate(); err != nil {
			return err
		}
	}
	if err := s.restaurants.Upsert(ctx, r); err != nil {
		return fmt.Errorf("save restaurant: %w", err)
	}
	return nil
}
