package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
)

// FavoriteService manages user bookmarks.
type FavoriteService struct {
	favorites ports.FavoriteRepository
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(favorites ports.FavoriteRepository) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

// Toggle removes the favorite if it exists and creates it otherwise. It
// reports whether the item is a favorite afterwards.
func (s *FavoriteService) Toggle(ctx context.Context, f domain.Favorite) (bool, error) {
	f.UserEmail = strings.ToLower(strings.TrimSpace(f.UserEmail))
	if err := f.Validate(); err != nil {
		return false, err
	}

	existing, err := s.favorites.Find(ctx, f.UserEmail, f.ItemType, f.ItemID)
	switch {
	case err == nil:
		if err := s.favorites.Delete(ctx, existing.ID); err != nil {
			return true, err
		}
		return false, nil
	case errors.Is(err, domain.ErrNotFound):
	default:
		return false, err
	}

	if err := s.favorites.Create(ctx, &f); err != nil {
		return false, err
	}
	return true, nil
}

// List returns a user's favorites; itemType "" returns both kinds.
func (s *FavoriteService) List(ctx context.Context, email, itemType string) ([]domain.Favorite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, &domain.ValidationError{Field: "email", Reason: "required"}
	}
	if itemType != "" && itemType != domain.FavoriteSynagogue && itemType != domain.FavoriteRestaurant {
		return nil, &domain.ValidationError{Field: "type", Value: itemType, Reason: "must be synagogue or restaurant"}
	}
	return s.favorites.ListByUser(ctx, email, itemType)
}

// IDs returns the favorited item IDs of one kind.
func (s *FavoriteService) IDs(ctx context.Context, email, itemType string) ([]string, error) {
	return favoriteIDs(ctx, s.favorites, email, itemType)
}

func favoriteIDs(ctx context.Context, repo ports.FavoriteRepository, email, itemType string) ([]string, error) {
	favs, err := repo.ListByUser(ctx, strings.ToLower(strings.TrimSpace(email)), itemType)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(favs))
	for i, f := range favs {
		ids[i] = f.ItemID
	}
	return ids, nil
}
