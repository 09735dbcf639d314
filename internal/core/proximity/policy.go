package proximity

import (
	"github.com/samirrijal/kehillah/internal/core/domain"
)

// Policy decides which reference point a distance query uses.
type Policy struct {
	// Fallback is used when the caller has no location. Nil disables it.
	Fallback *domain.GeoPoint
}

// Reference returns user when present. Otherwise it returns the fallback with
// fallback=true, or ErrLocationUnavailable when none is configured.
func (p Policy) Reference(user *domain.GeoPoint) (ref domain.GeoPoint, fallback bool, err error) {
	if user != nil {
		if err := user.Validate(); err != nil {
			return domain.GeoPoint{}, false, err
		}
		return *user, false, nil
	}
	if p.Fallback == nil {
		return domain.GeoPoint{}, false, domain.ErrLocationUnavailable
	}
	if err := p.Fallback.Validate(); err != nil {
		return domain.GeoPoint{}, false, err
	}
	return *p.Fallback, true, nil
}
