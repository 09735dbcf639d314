package ports

import (
	"context"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

// SynagogueRepository persists synagogues.
type SynagogueRepository interface {
	Upsert(ctx context.Context, s *domain.Synagogue) error
	UpsertBatch(ctx context.Context, ss []domain.Synagogue) error
	GetByID(ctx context.Context, id string) (*domain.Synagogue, error)
	// List returns synagogues ordered by name; nusach "" matches all.
	List(ctx context.Context, nusach string, offset, limit int) ([]domain.Synagogue, int, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Synagogue, error)
	// InBounds returns located synagogues inside the box, unordered.
	InBounds(ctx context.Context, b domain.Bounds) ([]domain.Synagogue, error)
}

// MinyanRepository persists minyanim.
type MinyanRepository interface {
	Upsert(ctx context.Context, m *domain.Minyan) error
	UpsertBatch(ctx context.Context, ms []domain.Minyan) error
	GetByID(ctx context.Context, id string) (*domain.Minyan, error)
	Delete(ctx context.Context, id string) error
	ListActive(ctx context.Context) ([]domain.Minyan, error)
	ListBySynagogue(ctx context.Context, synagogueID string) ([]domain.Minyan, error)
}

// RestaurantRepository persists restaurants.
type RestaurantRepository interface {
	Upsert(ctx context.Context, r *domain.Restaurant) error
	UpsertBatch(ctx context.Context, rs []domain.Restaurant) error
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
	List(ctx context.Context, q RestaurantQuery) ([]domain.Restaurant, error)
}

// RestaurantQuery holds the filters applied in SQL. Distance filtering
// happens in the service.
type RestaurantQuery struct {
	Search        string
	Type          string
	Certification string
	PriceRange    string
	IDs           []string // nil means unrestricted
}

// FavoriteRepository persists user favorites.
type FavoriteRepository interface {
	Create(ctx context.Context, f *domain.Favorite) error
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, email, itemType, itemID string) (*domain.Favorite, error)
	// ListByUser returns a user's favorites; itemType "" matches both kinds.
	ListByUser(ctx context.Context, email, itemType string) ([]domain.Favorite, error)
}

// ZmanimRepository persists daily zmanim.
type ZmanimRepository interface {
	Upsert(ctx context.Context, z *domain.Zmanim) error
	GetByDate(ctx context.Context, date string) (*domain.Zmanim, error)
}
