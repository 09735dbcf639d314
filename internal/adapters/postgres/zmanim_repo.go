package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

// ZmanimRepo implements ports.ZmanimRepository with pgx.
type ZmanimRepo struct {
	db *DB
}

// NewZmanimRepo creates a new ZmanimRepo.
func NewZmanimRepo(db *DB) *ZmanimRepo {
	return &ZmanimRepo{db: db}
}

// Upsert stores the zmanim for z.Date, replacing any previous entry.
func (r *ZmanimRepo) Upsert(ctx context.Context, z *domain.Zmanim) error {
	times, err := json.Marshal(z.Times)
	if err != nil {
		return fmt.Errorf("encode zmanim %s: %w", z.Date, err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO zmanim (date, hebrew_date, daf_yomi, times)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (date) DO UPDATE
		SET hebrew_date = EXCLUDED.hebrew_date, daf_yomi = EXCLUDED.daf_yomi, times = EXCLUDED.times
	`, z.Date, z.HebrewDate, z.DafYomi, times)
	if err != nil {
		return fmt.Errorf("upsert zmanim %s: %w", z.Date, err)
	}
	return nil
}

// GetByDate returns the zmanim for a YYYY-MM-DD date.
func (r *ZmanimRepo) GetByDate(ctx context.Context, date string) (*domain.Zmanim, error) {
	var (
		z     domain.Zmanim
		times []byte
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), hebrew_date, daf_yomi, times
		FROM zmanim WHERE date = $1::date
	`, date).Scan(&z.Date, &z.HebrewDate, &z.DafYomi, &times)
	if err != nil {
		return nil, notFound(err, "zmanim", date)
	}
	if err := json.Unmarshal(times, &z.Times); err != nil {
		return nil, fmt.Errorf("decode zmanim %s: %w", date, err)
	}
	return &z, nil
}
