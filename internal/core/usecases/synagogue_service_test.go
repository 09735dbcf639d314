package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/proximity"
	"github.com/samirrijal/kehillah/internal/core/usecases"
)

func synagogueFixture() []domain.Synagogue {
	hydePark := domain.GeoPoint{Lat: 41.7943, Lon: -87.5907}
	return []domain.Synagogue{
		{ID: "far", Name: "Ezras Israel", Location: &skokie},
		{ID: "near", Name: "Anshe Emet", Location: &nearby},
		{ID: "mid", Name: "KAM Isaiah Israel", Location: &hydePark},
	}
}

func TestSynagogueService_Nearby(t *testing.T) {
	repo := &mockSynagogueRepo{inBoundsFn: func(ctx context.Context, b domain.Bounds) ([]domain.Synagogue, error) {
		assert.Less(t, b.MinLat, loop.Lat)
		assert.Greater(t, b.MaxLat, loop.Lat)
		assert.Less(t, b.MinLon, loop.Lon)
		assert.Greater(t, b.MaxLon, loop.Lon)
		return synagogueFixture(), nil
	}}
	svc := usecases.NewSynagogueService(repo, nil, proximity.Policy{}, 5, 50)

	res, err := svc.Nearby(context.Background(), &loop, 10, 0)
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, 10.0, res.Radius)
	require.Len(t, res.Synagogues, 2)
	assert.Equal(t, "near", res.Synagogues[0].ID)
	assert.Equal(t, 0.1, *res.Synagogues[0].Distance)
	assert.Equal(t, "mid", res.Synagogues[1].ID)
	assert.Equal(t, 6.1, *res.Synagogues[1].Distance)
}

func TestSynagogueService_Nearby_Fallback(t *testing.T) {
	repo := &mockSynagogueRepo{inBoundsFn: func(ctx context.Context, b domain.Bounds) ([]domain.Synagogue, error) {
		return synagogueFixture(), nil
	}}
	svc := usecases.NewSynagogueService(repo, nil, proximity.Policy{Fallback: &loop}, 5, 50)

	res, err := svc.Nearby(context.Background(), nil, 0, 0)
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, loop, res.Reference)
	assert.Equal(t, 5.0, res.Radius)
	require.Len(t, res.Synagogues, 1)
	assert.Equal(t, "near", res.Synagogues[0].ID)
}

func TestSynagogueService_Nearby_ClampsRadius(t *testing.T) {
	svc := usecases.NewSynagogueService(&mockSynagogueRepo{}, nil, proximity.Policy{}, 5, 50)

	res, err := svc.Nearby(context.Background(), &loop, 500, 0)
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.Radius)
	assert.Empty(t, res.Synagogues)
}

func TestSynagogueService_Nearby_NoLocation(t *testing.T) {
	svc := usecases.NewSynagogueService(&mockSynagogueRepo{}, nil, proximity.Policy{}, 5, 50)

	_, err := svc.Nearby(context.Background(), nil, 0, 0)
	assert.ErrorIs(t, err, domain.ErrLocationUnavailable)

	_, err = svc.Nearby(context.Background(), &domain.GeoPoint{Lat: 91, Lon: 0}, 0, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSynagogueService_Search(t *testing.T) {
	repo := &mockSynagogueRepo{searchFn: func(ctx context.Context, q string, limit int) ([]domain.Synagogue, error) {
		assert.Equal(t, "anshe", q)
		assert.Equal(t, 20, limit)
		return []domain.Synagogue{{ID: "near", Name: "Anshe Emet"}}, nil
	}}
	svc := usecases.NewSynagogueService(repo, nil, proximity.Policy{}, 5, 50)

	got, err := svc.Search(context.Background(), "  anshe ", 500)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.Search(context.Background(), " ", 10)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSynagogueService_GetByID_Cached(t *testing.T) {
	calls := 0
	repo := &mockSynagogueRepo{getByIDFn: func(ctx context.Context, id string) (*domain.Synagogue, error) {
		calls++
		return &domain.Synagogue{ID: id, Name: "Anshe Emet"}, nil
	}}
	svc := usecases.NewSynagogueService(repo, newMemCache(), proximity.Policy{}, 5, 50)

	for range 3 {
		s, err := svc.GetByID(context.Background(), "near")
		require.NoError(t, err)
		assert.Equal(t, "Anshe Emet", s.Name)
	}
	assert.Equal(t, 1, calls)
}

func TestSynagogueService_List_AllNusach(t *testing.T) {
	repo := &mockSynagogueRepo{listFn: func(ctx context.Context, nusach string, offset, limit int) ([]domain.Synagogue, int, error) {
		assert.Empty(t, nusach)
		return synagogueFixture(), 3, nil
	}}
	svc := usecases.NewSynagogueService(repo, nil, proximity.Policy{}, 5, 50)

	got, total, err := svc.List(context.Background(), "All", 0, 20)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 3, total)
}
