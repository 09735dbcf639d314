package usecases_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
)

// --- Mock MinyanRepository ---

type mockMinyanRepo struct {
	listActiveFn      func(ctx context.Context) ([]domain.Minyan, error)
	listBySynagogueFn func(ctx context.Context, synagogueID string) ([]domain.Minyan, error)
	getByIDFn         func(ctx context.Context, id string) (*domain.Minyan, error)
	upsertFn          func(ctx context.Context, m *domain.Minyan) error
	deleteFn          func(ctx context.Context, id string) error

	listActiveCalls int
}

func (m *mockMinyanRepo) UpsertBatch(ctx context.Context, ms []domain.Minyan) error { return nil }

func (m *mockMinyanRepo) Upsert(ctx context.Context, mi *domain.Minyan) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, mi)
	}
	return nil
}

func (m *mockMinyanRepo) GetByID(ctx context.Context, id string) (*domain.Minyan, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMinyanRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockMinyanRepo) ListActive(ctx context.Context) ([]domain.Minyan, error) {
	m.listActiveCalls++
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

func (m *mockMinyanRepo) ListBySynagogue(ctx context.Context, synagogueID string) ([]domain.Minyan, error) {
	if m.listBySynagogueFn != nil {
		return m.listBySynagogueFn(ctx, synagogueID)
	}
	return nil, nil
}

// --- Mock SynagogueRepository ---

type mockSynagogueRepo struct {
	inBoundsFn func(ctx context.Context, b domain.Bounds) ([]domain.Synagogue, error)
	searchFn   func(ctx context.Context, query string, limit int) ([]domain.Synagogue, error)
	listFn     func(ctx context.Context, nusach string, offset, limit int) ([]domain.Synagogue, int, error)
	getByIDFn  func(ctx context.Context, id string) (*domain.Synagogue, error)
}

func (m *mockSynagogueRepo) Upsert(ctx context.Context, s *domain.Synagogue) error        { return nil }
func (m *mockSynagogueRepo) UpsertBatch(ctx context.Context, ss []domain.Synagogue) error { return nil }

func (m *mockSynagogueRepo) GetByID(ctx context.Context, id string) (*domain.Synagogue, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSynagogueRepo) List(ctx context.Context, nusach string, offset, limit int) ([]domain.Synagogue, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, nusach, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockSynagogueRepo) Search(ctx context.Context, query string, limit int) ([]domain.Synagogue, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockSynagogueRepo) InBounds(ctx context.Context, b domain.Bounds) ([]domain.Synagogue, error) {
	if m.inBoundsFn != nil {
		return m.inBoundsFn(ctx, b)
	}
	return nil, nil
}

// --- Mock RestaurantRepository ---

type mockRestaurantRepo struct {
	listFn func(ctx context.Context, q ports.RestaurantQuery) ([]domain.Restaurant, error)
}

func (m *mockRestaurantRepo) Upsert(ctx context.Context, r *domain.Restaurant) error        { return nil }
func (m *mockRestaurantRepo) UpsertBatch(ctx context.Context, rs []domain.Restaurant) error { return nil }
func (m *mockRestaurantRepo) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	return nil, domain.ErrNotFound
}

func (m *mockRestaurantRepo) List(ctx context.Context, q ports.RestaurantQuery) ([]domain.Restaurant, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return nil, nil
}

// --- In-memory FavoriteRepository ---

type memFavoriteRepo struct {
	mu   sync.Mutex
	favs []domain.Favorite
	seq  int
}

func (m *memFavoriteRepo) Create(ctx context.Context, f *domain.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	f.ID = fmt.Sprintf("fav-%d", m.seq)
	m.favs = append(m.favs, *f)
	return nil
}

func (m *memFavoriteRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.favs {
		if f.ID == id {
			m.favs = append(m.favs[:i], m.favs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memFavoriteRepo) Find(ctx context.Context, email, itemType, itemID string) (*domain.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.favs {
		if f.UserEmail == email && f.ItemType == itemType && f.ItemID == itemID {
			return &f, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memFavoriteRepo) ListByUser(ctx context.Context, email, itemType string) ([]domain.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Favorite
	for _, f := range m.favs {
		if f.UserEmail == email && (itemType == "" || f.ItemType == itemType) {
			out = append(out, f)
		}
	}
	return out, nil
}

// --- Mock ZmanimRepository ---

type mockZmanimRepo struct {
	byDate map[string]*domain.Zmanim
}

func (m *mockZmanimRepo) Upsert(ctx context.Context, z *domain.Zmanim) error {
	if m.byDate == nil {
		m.byDate = map[string]*domain.Zmanim{}
	}
	m.byDate[z.Date] = z
	return nil
}

func (m *mockZmanimRepo) GetByDate(ctx context.Context, date string) (*domain.Zmanim, error) {
	if z, ok := m.byDate[date]; ok {
		return z, nil
	}
	return nil, domain.ErrNotFound
}

// --- In-memory CacheService ---

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Mock ReminderScheduler ---

type mockScheduler struct {
	got []ports.ReminderRequest
}

func (m *mockScheduler) ScheduleReminder(ctx context.Context, req ports.ReminderRequest) (string, error) {
	m.got = append(m.got, req)
	return "minyan-reminder-" + req.MinyanID, nil
}

func hm(hour, minute int) domain.TimeOfDay {
	return domain.TimeOfDay(hour*60 + minute)
}
