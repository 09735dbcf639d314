package seed

import (
	"context"
	"fmt"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/pkg/logging"
)

// batchSize bounds the rows sent in one pgx batch.
const batchSize = 500

// Repos are the stores a dataset is written to.
type Repos struct {
	Synagogues  ports.SynagogueRepository
	Minyanim    ports.MinyanRepository
	Restaurants ports.RestaurantRepository
	Zmanim      ports.ZmanimRepository
}

// Counts reports how many rows of each kind were written.
type Counts struct {
	Synagogues  int
	Minyanim    int
	Restaurants int
	Zmanim      int
}

// Apply upserts the dataset. Synagogues go first so minyanim can reference them.
func Apply(ctx context.Context, r Repos, ds *Dataset) (Counts, error) {
	logger := logging.FromContext(ctx)
	var c Counts

	if err := inBatches(ds.Synagogues, func(b []domain.Synagogue) error { return r.Synagogues.UpsertBatch(ctx, b) }); err != nil {
		return c, fmt.Errorf("synagogues: %w", err)
	}
	c.Synagogues = len(ds.Synagogues)
	logger.Info().Int("count", c.Synagogues).Msg("synagogues upserted")

	if err := inBatches(ds.Minyanim, func(b []domain.Minyan) error { return r.Minyanim.UpsertBatch(ctx, b) }); err != nil {
		return c, fmt.Errorf("minyanim: %w", err)
	}
	c.Minyanim = len(ds.Minyanim)
	logger.Info().Int("count", c.Minyanim).Msg("minyanim upserted")

	if err := inBatches(ds.Restaurants, func(b []domain.Restaurant) error { return r.Restaurants.UpsertBatch(ctx, b) }); err != nil {
		return c, fmt.Errorf("restaurants: %w", err)
	}
	c.Restaurants = len(ds.Restaurants)
	logger.Info().Int("count", c.Restaurants).Msg("restaurants upserted")

	for i := range ds.Zmanim {
		if err := r.Zmanim.Upsert(ctx, &ds.Zmanim[i]); err != nil {
			return c, fmt.Errorf("zmanim %s: %w", ds.Zmanim[i].Date, err)
		}
		c.Zmanim++
	}
	logger.Info().Int("count", c.Zmanim).Msg("zmanim upserted")

	return c, nil
}

func inBatches[T any](rows []T, write func([]T) error) error {
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		if err := write(rows[start:end]); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}
