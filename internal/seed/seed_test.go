package seed_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/ports"
	"github.com/samirrijal/kehillah/internal/seed"
)

const manifestYAML = `
source: test
synagogues:
  - name: Anshe Emet
    address: 3751 N Broadway
    nusach: Ashkenaz
    lat: 41.9497
    lon: -87.6449
    minyanim:
      - prayer: Shacharit
        days: [Sun, Mon, Tue, Wed, Thu, Fri]
        time: "06:45"
      - prayer: Maariv
        days: [Saturday]
        time: 8:15 PM
        nusach: Sefard
  - id: 4f6c2a8e-3d1b-4c5e-9a7f-0b1c2d3e4f50
    name: Skokie Shul
restaurants:
  - name: Milk & Honey
    type: dairy
    price_range: $$
zmanim:
  - date: "2024-03-04"
    times:
      sunrise: "06:21"
      sunset: 5:42 PM
`

func build(t *testing.T, doc string) (*seed.Dataset, error) {
	t.Helper()
	m, err := seed.Parse([]byte(doc))
	require.NoError(t, err)
	return m.Build()
}

func TestBuild_ConvertsRows(t *testing.T) {
	ds, err := build(t, manifestYAML)
	require.NoError(t, err)

	require.Len(t, ds.Synagogues, 2)
	anshe := ds.Synagogues[0]
	require.NotNil(t, anshe.Location)
	assert.InDelta(t, 41.9497, anshe.Location.Lat, 1e-9)
	assert.Equal(t, "4f6c2a8e-3d1b-4c5e-9a7f-0b1c2d3e4f50", ds.Synagogues[1].ID)
	assert.Nil(t, ds.Synagogues[1].Location)

	require.Len(t, ds.Minyanim, 2)
	shacharit, maariv := ds.Minyanim[0], ds.Minyanim[1]
	assert.Equal(t, anshe.ID, shacharit.SynagogueID)
	assert.Equal(t, "Anshe Emet", shacharit.SynagogueName)
	assert.Equal(t, "Ashkenaz", shacharit.Nusach, "inherits the synagogue's nusach")
	assert.Len(t, shacharit.Days, 6)
	assert.True(t, shacharit.Active)
	assert.Equal(t, anshe.Location, shacharit.Location)

	assert.Equal(t, []domain.Weekday{domain.Shabbat}, maariv.Days)
	assert.Equal(t, domain.TimeOfDay(20*60+15), maariv.Time)
	assert.Equal(t, "Sefard", maariv.Nusach)

	require.Len(t, ds.Restaurants, 1)
	assert.Equal(t, domain.RestaurantDairy, ds.Restaurants[0].Type)

	require.Len(t, ds.Zmanim, 1)
	assert.Equal(t, domain.TimeOfDay(17*60+42), ds.Zmanim[0].Times["sunset"])
}

func TestBuild_IDsAreStable(t *testing.T) {
	first, err := build(t, manifestYAML)
	require.NoError(t, err)
	second, err := build(t, manifestYAML)
	require.NoError(t, err)

	assert.Equal(t, first.Synagogues[0].ID, second.Synagogues[0].ID)
	assert.Equal(t, first.Minyanim[0].ID, second.Minyanim[0].ID)
	assert.Equal(t, first.Restaurants[0].ID, second.Restaurants[0].ID)
	assert.NotEqual(t, first.Minyanim[0].ID, first.Minyanim[1].ID)
}

func TestBuild_RejectsRowsWithIndex(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "bad time",
			doc: `
synagogues:
  - name: A
  - name: B
    minyanim:
      - {prayer: Mincha, days: [Mon], time: "7"}
`,
			want: "synagogues[1].minyanim[0]",
		},
		{
			name: "unknown weekday",
			doc: `
synagogues:
  - name: A
    minyanim:
      - {prayer: Mincha, days: [Funday], time: "13:30"}
`,
			want: "synagogues[0].minyanim[0]",
		},
		{
			name: "no days",
			doc: `
synagogues:
  - name: A
    minyanim:
      - {prayer: Mincha, days: [], time: "13:30"}
`,
			want: "synagogues[0].minyanim[0]",
		},
		{
			name: "half a location",
			doc: `
synagogues:
  - name: A
    lat: 41.9
`,
			want: `synagogues[0] "A"`,
		},
		{
			name: "restaurant type",
			doc: `
restaurants:
  - name: Grill
    type: treif
`,
			want: `restaurants[0] "Grill"`,
		},
		{
			name: "unknown zman",
			doc: `
zmanim:
  - date: "2024-03-04"
    times: {midnight_snack: "23:00"}
`,
			want: "zmanim[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := build(t, tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := seed.Parse([]byte("synagogues:\n  - name: A\n    rebbe: B\n"))
	require.Error(t, err)
}

type countingSynagogues struct {
	ports.SynagogueRepository
	batches []int
}

func (c *countingSynagogues) UpsertBatch(_ context.Context, ss []domain.Synagogue) error {
	c.batches = append(c.batches, len(ss))
	return nil
}

type countingMinyanim struct {
	ports.MinyanRepository
	rows int
	err  error
}

func (c *countingMinyanim) UpsertBatch(_ context.Context, ms []domain.Minyan) error {
	if c.err != nil {
		return c.err
	}
	c.rows += len(ms)
	return nil
}

type countingRestaurants struct {
	ports.RestaurantRepository
	rows int
}

func (c *countingRestaurants) UpsertBatch(_ context.Context, rs []domain.Restaurant) error {
	c.rows += len(rs)
	return nil
}

type countingZmanim struct {
	ports.ZmanimRepository
	dates []string
}

func (c *countingZmanim) Upsert(_ context.Context, z *domain.Zmanim) error {
	c.dates = append(c.dates, z.Date)
	return nil
}

func TestApply_WritesInBatches(t *testing.T) {
	ds := &seed.Dataset{}
	for i := range 1201 {
		ds.Synagogues = append(ds.Synagogues, domain.Synagogue{ID: fmt.Sprint(i), Name: "S"})
	}
	ds.Minyanim = make([]domain.Minyan, 3)
	ds.Zmanim = []domain.Zmanim{{Date: "2024-03-04"}, {Date: "2024-03-05"}}

	syns := &countingSynagogues{}
	mins := &countingMinyanim{}
	rests := &countingRestaurants{}
	zm := &countingZmanim{}

	counts, err := seed.Apply(context.Background(), seed.Repos{
		Synagogues: syns, Minyanim: mins, Restaurants: rests, Zmanim: zm,
	}, ds)
	require.NoError(t, err)

	assert.Equal(t, []int{500, 500, 201}, syns.batches)
	assert.Equal(t, 3, mins.rows)
	assert.Equal(t, 0, rests.rows)
	assert.Equal(t, []string{"2024-03-04", "2024-03-05"}, zm.dates)
	assert.Equal(t, seed.Counts{Synagogues: 1201, Minyanim: 3, Zmanim: 2}, counts)
}

func TestApply_StopsOnError(t *testing.T) {
	ds := &seed.Dataset{
		Synagogues: []domain.Synagogue{{ID: "s"}},
		Minyanim:   []domain.Minyan{{ID: "m"}},
		Zmanim:     []domain.Zmanim{{Date: "2024-03-04"}},
	}
	zm := &countingZmanim{}

	counts, err := seed.Apply(context.Background(), seed.Repos{
		Synagogues:  &countingSynagogues{},
		Minyanim:    &countingMinyanim{err: errors.New("fk violation")},
		Restaurants: &countingRestaurants{},
		Zmanim:      zm,
	}, ds)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "minyanim: rows 0-0: fk violation")
	assert.Equal(t, 1, counts.Synagogues)
	assert.Empty(t, zm.dates)
}
