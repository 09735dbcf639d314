package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/kehillah/internal/core/domain"
)

// queryLocation reads the optional lat/lon pair. Both or neither must be
// present; a half-supplied or malformed pair is rejected rather than
// silently replaced by the fallback point.
func queryLocation(c *fiber.Ctx) (*domain.GeoPoint, error) {
	latStr, lonStr := strings.TrimSpace(c.Query("lat")), strings.TrimSpace(c.Query("lon"))
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, &domain.ValidationError{Field: "lat/lon", Reason: "both coordinates are required together"}
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: "latitude", Value: latStr, Reason: "must be a number"}
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: "longitude", Value: lonStr, Reason: "must be a number"}
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// queryFloat parses an optional non-negative number.
func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, &domain.ValidationError{Field: key, Value: raw, Reason: "must be a non-negative number"}
	}
	return v, nil
}

// pathID returns the :id parameter, rejecting anything that is not a UUID.
func pathID(c *fiber.Ctx) (string, error) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", &domain.ValidationError{Field: "id", Value: id, Reason: "must be a UUID"}
	}
	return id, nil
}

// splitList parses a comma-separated query value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
