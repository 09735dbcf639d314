package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

// FavoriteRepo implements ports.FavoriteRepository with pgx.
type FavoriteRepo struct {
	db *DB
}

// NewFavoriteRepo creates a new FavoriteRepo.
func NewFavoriteRepo(db *DB) *FavoriteRepo {
	return &FavoriteRepo{db: db}
}

// Create stores a favorite. Creating an existing one is a no-op that
// returns the stored row.
func (r *FavoriteRepo) Create(ctx context.Context, f *domain.Favorite) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO favorites (user_email, item_type, item_id, item_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_email, item_type, item_id) DO UPDATE SET item_name = EXCLUDED.item_name
		RETURNING id, created_at
	`, f.UserEmail, f.ItemType, f.ItemID, f.ItemName).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("create favorite: %w", err)
	}
	return nil
}

// Delete removes a favorite by ID.
func (r *FavoriteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM favorites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete favorite %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("favorite %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Find returns the user's favorite for one item.
func (r *FavoriteRepo) Find(ctx context.Context, email, itemType, itemID string) (*domain.Favorite, error) {
	var f domain.Favorite
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, user_email, item_type, item_id, item_name, created_at
		FROM favorites
		WHERE user_email = $1 AND item_type = $2 AND item_id = $3
	`, email, itemType, itemID).Scan(&f.ID, &f.UserEmail, &f.ItemType, &f.ItemID, &f.ItemName, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("favorite %s/%s: %w", itemType, itemID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find favorite: %w", err)
	}
	return &f, nil
}

// ListByUser returns a user's favorites, newest first.
func (r *FavoriteRepo) ListByUser(ctx context.Context, email, itemType string) ([]domain.Favorite, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_email, item_type, item_id, item_name, created_at
		FROM favorites
		WHERE user_email = $1 AND ($2 = '' OR item_type = $2)
		ORDER BY created_at DESC, id
	`, email, itemType)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.ID, &f.UserEmail, &f.ItemType, &f.ItemID, &f.ItemName, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
