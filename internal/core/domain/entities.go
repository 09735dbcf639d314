package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Synagogue represents a congregation listed in the directory.
type Synagogue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Rabbi     string    `json:"rabbi,omitempty"`
	Nusach    string    `json:"nusach,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Website   string    `json:"website,omitempty"`
	Location  *GeoPoint `json:"location,omitempty"`
	Distance  *float64  `json:"distance,omitempty"` // computed field, miles
	CreatedAt time.Time `json:"created_at"`
}

// Coordinates implements proximity.Locatable.
func (s Synagogue) Coordinates() *GeoPoint { return s.Location }

// Minyan is a recurring weekly prayer service held at a synagogue.
type Minyan struct {
	ID            string    `json:"id"`
	SynagogueID   string    `json:"synagogue_id"`
	SynagogueName string    `json:"synagogue_name"`
	PrayerType    string    `json:"prayer_type"`
	Nusach        string    `json:"nusach,omitempty"`
	Days          []Weekday `json:"days"`
	Time          TimeOfDay `json:"time"`
	Address       string    `json:"address,omitempty"`
	Location      *GeoPoint `json:"location,omitempty"`
	Distance      *float64  `json:"distance,omitempty"` // computed field, miles
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Coordinates implements proximity.Locatable.
func (m Minyan) Coordinates() *GeoPoint { return m.Location }

// Validate checks the fields that participate in schedule resolution.
func (m Minyan) Validate() error {
	if len(m.Days) == 0 {
		return invalid("days", m.ID, "at least one weekday is required")
	}
	for _, d := range m.Days {
		if !d.Valid() {
			return invalid("days", m.ID, "weekday out of range")
		}
	}
	if !m.Time.Valid() {
		return invalid("time", m.ID, "time of day out of range")
	}
	if m.Location != nil {
		if err := m.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Prayer types offered by the directory.
const (
	PrayerShacharit = "Shacharit"
	PrayerMincha    = "Mincha"
	PrayerMaariv    = "Maariv"
)

// Nusach options offered by the directory.
var Nusachs = []string{"Ashkenaz", "Sefard", "Edot HaMizrach", "Chabad"}

// Restaurant represents a kosher eatery.
type Restaurant struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Certification string    `json:"certification,omitempty"`
	PriceRange    string    `json:"price_range,omitempty"`
	Address       string    `json:"address,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Location      *GeoPoint `json:"location,omitempty"`
	Distance      *float64  `json:"distance,omitempty"` // computed field, miles
	CreatedAt     time.Time `json:"created_at"`
}

// Coordinates implements proximity.Locatable.
func (r Restaurant) Coordinates() *GeoPoint { return r.Location }

// Restaurant kosher categories.
const (
	RestaurantMeat   = "meat"
	RestaurantDairy  = "dairy"
	RestaurantPareve = "pareve"
)

// ValidRestaurantType reports whether t is a known kosher category.
func ValidRestaurantType(t string) bool {
	switch t {
	case RestaurantMeat, RestaurantDairy, RestaurantPareve:
		return true
	}
	return false
}

// ValidPriceRange accepts "$" through "$$$$".
func ValidPriceRange(p string) bool {
	return len(p) >= 1 && len(p) <= 4 && strings.Trim(p, "$") == ""
}

// Favorite item kinds.
const (
	FavoriteSynagogue  = "synagogue"
	FavoriteRestaurant = "restaurant"
)

// Favorite is a user's bookmark of a synagogue or restaurant.
type Favorite struct {
	ID        string    `json:"id"`
	UserEmail string    `json:"user_email"`
	ItemType  string    `json:"item_type"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the identifying fields of a favorite.
func (f Favorite) Validate() error {
	if f.UserEmail == "" {
		return invalid("user_email", "", "required")
	}
	if f.ItemType != FavoriteSynagogue && f.ItemType != FavoriteRestaurant {
		return invalid("item_type", f.ItemType, "must be synagogue or restaurant")
	}
	if f.ItemID == "" {
		return invalid("item_id", "", "required")
	}
	if _, err := uuid.Parse(f.ItemID); err != nil {
		return invalid("item_id", f.ItemID, "must be a UUID")
	}
	return nil
}

// Upcoming is the resolved next occurrence of a minyan.
type Upcoming struct {
	Minyan       Minyan    `json:"minyan"`
	Day          Weekday   `json:"day"`
	StartsAt     time.Time `json:"starts_at"`
	MinutesUntil int       `json:"minutes_until"`
}
