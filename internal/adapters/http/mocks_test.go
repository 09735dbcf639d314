package http_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
)

// ---- Mock repositories ----

type memMinyanRepo struct {
	mu    sync.Mutex
	items []domain.Minyan
}

func (m *memMinyanRepo) Upsert(ctx context.Context, mi *domain.Minyan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == mi.ID {
			m.items[i] = *mi
			return nil
		}
	}
	m.items = append(m.items, *mi)
	return nil
}

func (m *memMinyanRepo) UpsertBatch(ctx context.Context, ms []domain.Minyan) error {
	for i := range ms {
		if err := m.Upsert(ctx, &ms[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memMinyanRepo) GetByID(ctx context.Context, id string) (*domain.Minyan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mi := range m.items {
		if mi.ID == id {
			return &mi, nil
		}
	}
	return nil, fmt.Errorf("minyan %s: %w", id, domain.ErrNotFound)
}

func (m *memMinyanRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, mi := range m.items {
		if mi.ID == id {
			m.items = slices.Delete(m.items, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("minyan %s: %w", id, domain.ErrNotFound)
}

func (m *memMinyanRepo) ListActive(ctx context.Context) ([]domain.Minyan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Minyan
	for _, mi := range m.items {
		if mi.Active {
			out = append(out, mi)
		}
	}
	return out, nil
}

func (m *memMinyanRepo) ListBySynagogue(ctx context.Context, synagogueID string) ([]domain.Minyan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Minyan
	for _, mi := range m.items {
		if mi.SynagogueID == synagogueID {
			out = append(out, mi)
		}
	}
	return out, nil
}

type mockSynagogueRepo struct {
	getByIDFn  func(ctx context.Context, id string) (*domain.Synagogue, error)
	listFn     func(ctx context.Context, nusach string, offset, limit int) ([]domain.Synagogue, int, error)
	searchFn   func(ctx context.Context, query string, limit int) ([]domain.Synagogue, error)
	inBoundsFn func(ctx context.Context, b domain.Bounds) ([]domain.Synagogue, error)
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

type memFavoriteRepo struct {
	mu    sync.Mutex
	seq   int
	items []domain.Favorite
}

func (m *memFavoriteRepo) Create(ctx context.Context, f *domain.Favorite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	f.ID = fmt.Sprintf("fav-%d", m.seq)
	m.items = append(m.items, *f)
	return nil
}

func (m *memFavoriteRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = slices.DeleteFunc(m.items, func(f domain.Favorite) bool { return f.ID == id })
	return nil
}

func (m *memFavoriteRepo) Find(ctx context.Context, email, itemType, itemID string) (*domain.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.items {
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
	for _, f := range m.items {
		if f.UserEmail == email && (itemType == "" || f.ItemType == itemType) {
			out = append(out, f)
		}
	}
	return out, nil
}

type memZmanimRepo struct {
	mu     sync.Mutex
	byDate map[string]domain.Zmanim
}

func (m *memZmanimRepo) Upsert(ctx context.Context, z *domain.Zmanim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byDate == nil {
		m.byDate = make(map[string]domain.Zmanim)
	}
	m.byDate[z.Date] = *z
	return nil
}

func (m *memZmanimRepo) GetByDate(ctx context.Context, date string) (*domain.Zmanim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.byDate[date]
	if !ok {
		return nil, fmt.Errorf("zmanim %s: %w", date, domain.ErrNotFound)
	}
	return &z, nil
}
