package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

const minyanColumns = `m.id, m.synagogue_id, COALESCE(NULLIF(m.synagogue_name, ''), s.name, ''), m.prayer_type,
	COALESCE(NULLIF(m.nusach, ''), s.nusach, ''), m.days, m.time_of_day,
	COALESCE(NULLIF(m.address, ''), s.address, ''),
	CASE WHEN m.latitude IS NOT NULL AND m.longitude IS NOT NULL THEN m.latitude ELSE s.latitude END,
	CASE WHEN m.latitude IS NOT NULL AND m.longitude IS NOT NULL THEN m.longitude ELSE s.longitude END,
	m.active, m.created_at`

// minyanFrom joins the synagogue so a minyan inherits its name, rite,
// address and coordinates unless it overrides them. Coordinates are taken
// as a pair from one side only.
const minyanFrom = ` FROM minyanim m LEFT JOIN synagogues s ON s.id = m.synagogue_id `

// MinyanRepo implements ports.MinyanRepository with pgx.
type MinyanRepo struct {
	db *DB
}

// NewMinyanRepo creates a new MinyanRepo.
func NewMinyanRepo(db *DB) *MinyanRepo {
	return &MinyanRepo{db: db}
}

const upsertMinyan = `
	INSERT INTO minyanim (id, synagogue_id, synagogue_name, prayer_type, nusach, days, time_of_day,
	                      address, latitude, longitude, active)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO UPDATE
	SET synagogue_id = EXCLUDED.synagogue_id, synagogue_name = EXCLUDED.synagogue_name,
	    prayer_type = EXCLUDED.prayer_type, nusach = EXCLUDED.nusach, days = EXCLUDED.days,
	    time_of_day = EXCLUDED.time_of_day, address = EXCLUDED.address,
	    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude, active = EXCLUDED.active
	RETURNING created_at
`

func minyanArgs(m *domain.Minyan) []any {
	days := make([]int16, len(m.Days))
	for i, d := range m.Days {
		days[i] = int16(d)
	}
	lat, lon := nullablePoint(m.Location)
	return []any{
		m.ID, nilIfEmpty(m.SynagogueID), m.SynagogueName, m.PrayerType, m.Nusach, days,
		int16(m.Time), m.Address, lat, lon, m.Active,
	}
}

// Upsert inserts or updates a single minyan. ID must be set.
func (r *MinyanRepo) Upsert(ctx context.Context, m *domain.Minyan) error {
	if err := r.db.Pool.QueryRow(ctx, upsertMinyan, minyanArgs(m)...).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("upsert minyan %s: %w", m.ID, err)
	}
	return nil
}

// UpsertBatch inserts many minyanim using pgx.Batch.
func (r *MinyanRepo) UpsertBatch(ctx context.Context, ms []domain.Minyan) error {
	batch := &pgx.Batch{}
	for i := range ms {
		batch.Queue(upsertMinyan, minyanArgs(&ms[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range ms {
		if err := br.QueryRow().Scan(&ms[i].CreatedAt); err != nil {
			return fmt.Errorf("batch upsert minyan %d: %w", i, err)
		}
	}
	return nil
}

// GetByID returns a minyan by UUID.
func (r *MinyanRepo) GetByID(ctx context.Context, id string) (*domain.Minyan, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+minyanColumns+minyanFrom+`WHERE m.id = $1`, id)
	m, err := scanMinyan(row)
	if err != nil {
		return nil, notFound(err, "minyan", id)
	}
	return m, nil
}

// Delete removes a minyan.
func (r *MinyanRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM minyanim WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete minyan %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("minyan %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListActive returns every active minyan.
func (r *MinyanRepo) ListActive(ctx context.Context) ([]domain.Minyan, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+minyanColumns+minyanFrom+`WHERE m.active ORDER BY m.time_of_day, m.id`)
	if err != nil {
		return nil, fmt.Errorf("list active minyanim: %w", err)
	}
	return collectMinyanim(rows)
}

// ListBySynagogue returns a synagogue's minyanim, active or not.
func (r *MinyanRepo) ListBySynagogue(ctx context.Context, synagogueID string) ([]domain.Minyan, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+minyanColumns+minyanFrom+`WHERE m.synagogue_id = $1 ORDER BY m.time_of_day, m.id`, synagogueID)
	if err != nil {
		return nil, fmt.Errorf("list minyanim for %s: %w", synagogueID, err)
	}
	return collectMinyanim(rows)
}

func scanMinyan(row pgx.Row) (*domain.Minyan, error) {
	var (
		m           domain.Minyan
		synagogueID *string
		days        []int16
		tod         int16
		lat, lon    *float64
	)
	if err := row.Scan(
		&m.ID, &synagogueID, &m.SynagogueName, &m.PrayerType, &m.Nusach, &days, &tod,
		&m.Address, &lat, &lon, &m.Active, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	if synagogueID != nil {
		m.SynagogueID = *synagogueID
	}
	m.Days = make([]domain.Weekday, len(days))
	for i, d := range days {
		m.Days[i] = domain.Weekday(d)
	}
	m.Time = domain.TimeOfDay(tod)
	m.Location = domain.PointFromNullable(lat, lon)
	return &m, nil
}

func collectMinyanim(rows pgx.Rows) ([]domain.Minyan, error) {
	defer rows.Close()
	var out []domain.Minyan
	for rows.Next() {
		m, err := scanMinyan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
