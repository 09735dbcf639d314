package usecases

import (
	"context"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
)

// ZmanimView is the selected zmanim for one date.
type ZmanimView struct {
	Date       string            `json:"date"`
	HebrewDate string            `json:"hebrew_date,omitempty"`
	DafYomi    string            `json:"daf_yomi,omitempty"`
	Times      []domain.ZmanTime `json:"times"`
}

// ZmanimService serves daily halachic times.
type ZmanimService struct {
	zmanim ports.ZmanimRepository
	cache  ports.CacheService
}

// NewZmanimService creates a new ZmanimService.
func NewZmanimService(zmanim ports.ZmanimRepository, cache ports.CacheService) *ZmanimService {
	return &ZmanimService{zmanim: zmanim, cache: cache}
}

// ForDate returns the requested zmanim of date in chronological order.
// No keys selects domain.DefaultZmanKeys.
func (s *ZmanimService) ForDate(ctx context.Context, date string, keys []string) (*ZmanimView, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}
	z, err := readThrough(ctx, s.cache, "zmanim", "zmanim:"+date, ttlSingle, func() (*domain.Zmanim, error) {
		return s.zmanim.GetByDate(ctx, date)
	})
	if err != nil {
		return nil, err
	}
	times, err := z.Select(keys)
	if err != nil {
		return nil, err
	}
	return &ZmanimView{Date: z.Date, HebrewDate: z.HebrewDate, DafYomi: z.DafYomi, Times: times}, nil
}

// Save validates and stores the zmanim of one date.
func (s *ZmanimService) Save(ctx context.Context, z *domain.Zmanim) error {
	if err := z.Validate(); err != nil {
		return err
	}
	if err := s.zmanim.Upsert(ctx, z); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "zmanim:"+z.Date)
	}
	return nil
}
