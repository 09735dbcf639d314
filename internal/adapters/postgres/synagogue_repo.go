package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

const synagogueColumns = `id, name, address, rabbi, nusach, phone, website, latitude, longitude, created_at`

// SynagogueRepo implements ports.SynagogueRepository with pgx.
type SynagogueRepo struct {
	db *DB
}

// NewSynagogueRepo creates a new SynagogueRepo.
func NewSynagogueRepo(db *DB) *SynagogueRepo {
	return &SynagogueRepo{db: db}
}

const upsertSynagogue = `
	INSERT INTO synagogues (id, name, address, rabbi, nusach, phone, website, latitude, longitude)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, address = EXCLUDED.address, rabbi = EXCLUDED.rabbi,
	    nusach = EXCLUDED.nusach, phone = EXCLUDED.phone, website = EXCLUDED.website,
	    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude
	RETURNING created_at
`

func synagogueArgs(s *domain.Synagogue) []any {
	lat, lon := nullablePoint(s.Location)
	return []any{s.ID, s.Name, s.Address, s.Rabbi, s.Nusach, s.Phone, s.Website, lat, lon}
}

// Upsert inserts or updates a single synagogue. ID must be set.
func (r *SynagogueRepo) Upsert(ctx context.Context, s *domain.Synagogue) error {
	if err := r.db.Pool.QueryRow(ctx, upsertSynagogue, synagogueArgs(s)...).Scan(&s.CreatedAt); err != nil {
		return fmt.Errorf("upsert synagogue %s: %w", s.ID, err)
	}
	return nil
}

// UpsertBatch inserts many synagogues using pgx.Batch.
func (r *SynagogueRepo) UpsertBatch(ctx context.Context, ss []domain.Synagogue) error {
	batch := &pgx.Batch{}
	for i := range ss {
		batch.Queue(upsertSynagogue, synagogueArgs(&ss[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range ss {
		if err := br.QueryRow().Scan(&ss[i].CreatedAt); err != nil {
			return fmt.Errorf("batch upsert synagogue %d: %w", i, err)
		}
	}
	return nil
}

// GetByID returns a synagogue by UUID.
func (r *SynagogueRepo) GetByID(ctx context.Context, id string) (*domain.Synagogue, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+synagogueColumns+` FROM synagogues WHERE id = $1`, id)
	s, err := scanSynagogue(row)
	if err != nil {
		return nil, notFound(err, "synagogue", id)
	}
	return s, nil
}

// List returns synagogues ordered by name with the total matching count.
func (r *SynagogueRepo) List(ctx context.Context, nusach string, offset, limit int) ([]domain.Synagogue, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM synagogues WHERE ($1 = '' OR nusach = $1)`, nusach,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count synagogues: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+synagogueColumns+`
		FROM synagogues
		WHERE ($1 = '' OR nusach = $1)
		ORDER BY name, id
		OFFSET $2 LIMIT $3
	`, nusach, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list synagogues: %w", err)
	}
	out, err := collectSynagogues(rows)
	return out, total, err
}

// Search matches name or address case-insensitively.
func (r *SynagogueRepo) Search(ctx context.Context, query string, limit int) ([]domain.Synagogue, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+synagogueColumns+`
		FROM synagogues
		WHERE name ILIKE '%' || $1 || '%' OR address ILIKE '%' || $1 || '%'
		ORDER BY (lower(name) LIKE lower($1) || '%') DESC, name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search synagogues: %w", err)
	}
	return collectSynagogues(rows)
}

// InBounds returns located synagogues inside the bounding box.
func (r *SynagogueRepo) InBounds(ctx context.Context, b domain.Bounds) ([]domain.Synagogue, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+synagogueColumns+`
		FROM synagogues
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("synagogues in bounds: %w", err)
	}
	return collectSynagogues(rows)
}

func scanSynagogue(row pgx.Row) (*domain.Synagogue, error) {
	var (
		s        domain.Synagogue
		lat, lon *float64
	)
	if err := row.Scan(
		&s.ID, &s.Name, &s.Address, &s.Rabbi, &s.Nusach, &s.Phone, &s.Website,
		&lat, &lon, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	s.Location = domain.PointFromNullable(lat, lon)
	return &s, nil
}

func collectSynagogues(rows pgx.Rows) ([]domain.Synagogue, error) {
	defer rows.Close()
	var out []domain.Synagogue
	for rows.Next() {
		s, err := scanSynagogue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
