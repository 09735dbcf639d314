package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/kehillah/internal/adapters/postgres"
	"github.com/samirrijal/kehillah/internal/adapters/valkey"
	"github.com/samirrijal/kehillah/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Minyanim    *usecases.MinyanService
	Synagogues  *usecases.SynagogueService
	Restaurants *usecases.RestaurantService
	Favorites   *usecases.FavoriteService
	Zmanim      *usecases.ZmanimService
	Reminders   *usecases.ReminderService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
	RateLimit   int // requests per minute per IP; 0 uses the default
	Version     string
}
