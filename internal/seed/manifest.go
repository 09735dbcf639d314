// Package seed loads directory data from a YAML manifest.
package seed

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

// namespace derives stable IDs for manifest rows without one, so seeding
// twice updates rows instead of duplicating them.
var namespace = uuid.MustParse("6f1b8a0e-2c4d-5e6f-8a9b-0c1d2e3f4a5b")

// Manifest is the YAML document accepted by cmd/seed.
type Manifest struct {
	Source      string           `yaml:"source"`
	Synagogues  []SynagogueEntry  `yaml:"synagogues"`
	Restaurants []RestaurantEntry `yaml:"restaurants"`
	Zmanim      []ZmanimEntry     `yaml:"zmanim"`
}

type SynagogueEntry struct {
	ID       string        `yaml:"id"`
	Name     string        `yaml:"name"`
	Address  string        `yaml:"address"`
	Rabbi    string        `yaml:"rabbi"`
	Nusach   string        `yaml:"nusach"`
	Phone    string        `yaml:"phone"`
	Website  string        `yaml:"website"`
	Lat      *float64      `yaml:"lat"`
	Lon      *float64      `yaml:"lon"`
	Minyanim []MinyanEntry `yaml:"minyanim"`
}

type MinyanEntry struct {
	ID       string   `yaml:"id"`
	Prayer   string   `yaml:"prayer"`
	Nusach   string   `yaml:"nusach"` // defaults to the synagogue's
	Days     []string `yaml:"days"`
	Time     string   `yaml:"time"`
	Inactive bool     `yaml:"inactive"`
}

type RestaurantEntry struct {
	ID            string   `yaml:"id"`
	Name          string   `yaml:"name"`
	Type          string   `yaml:"type"`
	Certification string   `yaml:"certification"`
	PriceRange    string   `yaml:"price_range"`
	Address       string   `yaml:"address"`
	Phone         string   `yaml:"phone"`
	Lat           *float64 `yaml:"lat"`
	Lon           *float64 `yaml:"lon"`
}

type ZmanimEntry struct {
	Date       string            `yaml:"date"`
	HebrewDate string            `yaml:"hebrew_date"`
	DafYomi    string            `yaml:"daf_yomi"`
	Times      map[string]string `yaml:"times"`
}

// Dataset is a manifest converted to domain values.
type Dataset struct {
	Synagogues  []domain.Synagogue
	Minyanim    []domain.Minyan
	Restaurants []domain.Restaurant
	Zmanim      []domain.Zmanim
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// Build validates every row and converts the manifest. Errors name the
// section and index of the offending row.
func (m *Manifest) Build() (*Dataset, error) {
	ds := &Dataset{}

	for i, e := range m.Synagogues {
		syn, err := e.synagogue()
		if err != nil {
			return nil, fmt.Errorf("synagogues[%d] %q: %w", i, e.Name, err)
		}
		ds.Synagogues = append(ds.Synagogues, syn)

		for j, me := range e.Minyanim {
			mi, err := me.minyan(syn)
			if err != nil {
				return nil, fmt.Errorf("synagogues[%d].minyanim[%d]: %w", i, j, err)
			}
			ds.Minyanim = append(ds.Minyanim, mi)
		}
	}

	for i, e := range m.Restaurants {
		r, err := e.restaurant()
		if err != nil {
			return nil, fmt.Errorf("restaurants[%d] %q: %w", i, e.Name, err)
		}
		ds.Restaurants = append(ds.Restaurants, r)
	}

	for i, e := range m.Zmanim {
		z, err := e.zmanim()
		if err != nil {
			return nil, fmt.Errorf("zmanim[%d]: %w", i, err)
		}
		ds.Zmanim = append(ds.Zmanim, z)
	}
	return ds, nil
}

func stableID(id string, parts ...string) (string, error) {
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return "", &domain.ValidationError{Field: "id", Value: id, Reason: "must be a UUID"}
		}
		return id, nil
	}
	return uuid.NewSHA1(namespace, []byte(strings.Join(parts, "|"))).String(), nil
}

func point(lat, lon *float64) (*domain.GeoPoint, error) {
	if (lat == nil) != (lon == nil) {
		return nil, &domain.ValidationError{Field: "location", Reason: "lat and lon must be given together"}
	}
	p := domain.PointFromNullable(lat, lon)
	if p != nil {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (e SynagogueEntry) synagogue() (domain.Synagogue, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return domain.Synagogue{}, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	id, err := stableID(e.ID, "synagogue", strings.ToLower(name), strings.ToLower(e.Address))
	if err != nil {
		return domain.Synagogue{}, err
	}
	loc, err := point(e.Lat, e.Lon)
	if err != nil {
		return domain.Synagogue{}, err
	}
	return domain.Synagogue{
		ID:       id,
		Name:     name,
		Address:  e.Address,
		Rabbi:    e.Rabbi,
		Nusach:   e.Nusach,
		Phone:    e.Phone,
		Website:  e.Website,
		Location: loc,
	}, nil
}

func (e MinyanEntry) minyan(syn domain.Synagogue) (domain.Minyan, error) {
	days, err := domain.ParseWeekdays(e.Days)
	if err != nil {
		return domain.Minyan{}, err
	}
	tod, err := domain.ParseTimeOfDay(e.Time)
	if err != nil {
		return domain.Minyan{}, err
	}
	if strings.TrimSpace(e.Prayer) == "" {
		return domain.Minyan{}, &domain.ValidationError{Field: "prayer", Reason: "required"}
	}
	nusach := e.Nusach
	if nusach == "" {
		nusach = syn.Nusach
	}
	id, err := stableID(e.ID, "minyan", syn.ID, e.Prayer, tod.String(), strings.Join(domain.WeekdayLabels(days), ","))
	if err != nil {
		return domain.Minyan{}, err
	}

	m := domain.Minyan{
		ID:            id,
		SynagogueID:   syn.ID,
		SynagogueName: syn.Name,
		PrayerType:    e.Prayer,
		Nusach:        nusach,
		Days:          days,
		Time:          tod,
		Address:       syn.Address,
		Location:      syn.Location,
		Active:        !e.Inactive,
	}
	if err := m.Validate(); err != nil {
		return domain.Minyan{}, err
	}
	return m, nil
}

func (e RestaurantEntry) restaurant() (domain.Restaurant, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return domain.Restaurant{}, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if !domain.ValidRestaurantType(e.Type) {
		return domain.Restaurant{}, &domain.ValidationError{Field: "type", Value: e.Type, Reason: "must be meat, dairy or pareve"}
	}
	if e.PriceRange != "" && !domain.ValidPriceRange(e.PriceRange) {
		return domain.Restaurant{}, &domain.ValidationError{Field: "price_range", Value: e.PriceRange, Reason: "expected $ to $$$$"}
	}
	id, err := stableID(e.ID, "restaurant", strings.ToLower(name), strings.ToLower(e.Address))
	if err != nil {
		return domain.Restaurant{}, err
	}
	loc, err := point(e.Lat, e.Lon)
	if err != nil {
		return domain.Restaurant{}, err
	}
	return domain.Restaurant{
		ID:            id,
		Name:          name,
		Type:          e.Type,
		Certification: e.Certification,
		PriceRange:    e.PriceRange,
		Address:       e.Address,
		Phone:         e.Phone,
		Location:      loc,
	}, nil
}

func (e ZmanimEntry) zmanim() (domain.Zmanim, error) {
	z := domain.Zmanim{
		Date:       e.Date,
		HebrewDate: e.HebrewDate,
		DafYomi:    e.DafYomi,
		Times:      make(map[string]domain.TimeOfDay, len(e.Times)),
	}
	for k, v := range e.Times {
		t, err := domain.ParseTimeOfDay(v)
		if err != nil {
			return domain.Zmanim{}, fmt.Errorf("%s: %w", k, err)
		}
		z.Times[k] = t
	}
	if err := z.Validate(); err != nil {
		return domain.Zmanim{}, err
	}
	return z, nil
}
