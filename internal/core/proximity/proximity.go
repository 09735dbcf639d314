// Package proximity measures, filters and sorts located items by their
// great-circle distance from a reference point.
package proximity

import (
	"fmt"
	"math"
	"slices"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/pkg/geospatial"
)

// Locatable is anything that may carry a coordinate. Items returning nil are
// never assigned a distance.
type Locatable interface {
	Coordinates() *domain.GeoPoint
}

// Match pairs an item with its distance in miles from the reference point.
type Match[T Locatable] struct {
	Item     T
	Distance float64
}

// Distance returns the haversine distance in miles between two valid points.
func Distance(a, b domain.GeoPoint) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	return geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon), nil
}

// Measure computes the distance to every located item, preserving input
// order. Items without coordinates are skipped.
func Measure[T Locatable](ref domain.GeoPoint, items []T) ([]Match[T], error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("reference point: %w", err)
	}
	out := make([]Match[T], 0, len(items))
	for i, item := range items {
		p := item.Coordinates()
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		out = append(out, Match[T]{Item: item, Distance: geospatial.Haversine(ref.Lat, ref.Lon, p.Lat, p.Lon)})
	}
	return out, nil
}

// Within keeps the items at most radius miles from ref, in input order.
func Within[T Locatable](ref domain.GeoPoint, items []T, radius float64) ([]Match[T], error) {
	matches, err := Measure(ref, items)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(matches, func(m Match[T]) bool { return m.Distance > radius }), nil
}

// Nearest returns located items sorted by ascending distance. A radius of
// zero or less disables the threshold and a limit of zero or less disables
// the cap. Equal distances keep input order.
func Nearest[T Locatable](ref domain.GeoPoint, items []T, radius float64, limit int) ([]Match[T], error) {
	var (
		matches []Match[T]
		err     error
	)
	if radius > 0 {
		matches, err = Within(ref, items, radius)
	} else {
		matches, err = Measure(ref, items)
	}
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(matches, func(a, b Match[T]) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Items strips the distances from matches.
func Items[T Locatable](matches []Match[T]) []T {
	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = m.Item
	}
	return out
}

// RoundTenth rounds a distance to one decimal place for display.
func RoundTenth(d float64) float64 {
	return math.Round(d*10) / 10
}
