package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
)

const restaurantColumns = `id, name, type, certification, price_range, address, phone, latitude, longitude, created_at`

// RestaurantRepo implements ports.RestaurantRepository with pgx.
type RestaurantRepo struct {
	db *DB
}

// NewRestaurantRepo creates a new RestaurantRepo.
func NewRestaurantRepo(db *DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

const upsertRestaurant = `
	INSERT INTO restaurants (id, name, type, certification, price_range, address, phone, latitude, longitude)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, type = EXCLUDED.type, certification = EXCLUDED.certification,
	    price_range = EXCLUDED.price_range, address = EXCLUDED.address, phone = EXCLUDED.phone,
	    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	RETURNING created_at
`

func restaurantArgs(r *domain.Restaurant) []any {
	lat, lon := nullablePoint(r.Location)
	return []any{r.ID, r.Name, r.Type, r.Certification, r.PriceRange, r.Address, r.Phone, lat, lon}
}

// Upsert inserts or updates a single restaurant. ID must be set.
func (r *RestaurantRepo) Upsert(ctx context.Context, rest *domain.Restaurant) error {
	if err := r.db.Pool.QueryRow(ctx, upsertRestaurant, restaurantArgs(rest)...).Scan(&rest.CreatedAt); err != nil {
		return fmt.Errorf("upsert restaurant %s: %w", rest.ID, err)
	}
	return nil
}

// UpsertBatch inserts many restaurants using pgx.Batch.
func (r *RestaurantRepo) UpsertBatch(ctx context.Context, rs []domain.Restaurant) error {
	batch := &pgx.Batch{}
	for i := range rs {
		batch.Queue(upsertRestaurant, restaurantArgs(&rs[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range rs {
		if err := br.QueryRow().Scan(&rs[i].CreatedAt); err != nil {
			return fmt.Errorf("batch upsert restaurant %d: %w", i, err)
		}
	}
	return nil
}

// GetByID returns a restaurant by UUID.
func (r *RestaurantRepo) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, id)
	rest, err := scanRestaurant(row)
	if err != nil {
		return nil, notFound(err, "restaurant", id)
	}
	return rest, nil
}

// List applies the SQL-side filters. A nil q.IDs is unrestricted; an empty
// non-nil slice matches nothing.
func (r *RestaurantRepo) List(ctx context.Context, q ports.RestaurantQuery) ([]domain.Restaurant, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+restaurantColumns+`
		FROM restaurants
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR type = $2)
		  AND ($3 = '' OR certification = $3)
		  AND ($4 = '' OR price_range = $4)
		  AND ($5::uuid[] IS NULL OR id = ANY($5::uuid[]))
		ORDER BY name, id
	`, q.Search, q.Type, q.Certification, q.PriceRange, q.IDs)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		rest, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rest)
	}
	return out, rows.Err()
}

func scanRestaurant(row pgx.Row) (*domain.Restaurant, error) {
	var (
		rest     domain.Restaurant
		lat, lon *float64
	)
	if err := row.Scan(
		&rest.ID, &rest.Name, &rest.Type, &rest.Certification, &rest.PriceRange,
		&rest.Address, &rest.Phone, &lat, &lon, &rest.CreatedAt,
	); err != nil {
		return nil, err
	}
	rest.Location = domain.PointFromNullable(lat, lon)
	return &rest, nil
}
