package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/usecases"
)

// --- minyanim ---

// TodayMinyanimHandler returns today's minyanim after the nusach and quick
// filters, together with the next upcoming minyan.
func TodayMinyanimHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := queryLocation(c)
		if err != nil {
			return handleError(c, err)
		}
		view, err := deps.Minyanim.Today(c.UserContext(), usecases.MinyanFilter{
			Nusach: c.Query("nusach"),
			Quick:  c.Query("filter"),
			User:   user,
			Email:  c.Query("email"),
		})
		if err != nil {
			return handleError(c, err)
		}
		if view.Minyanim == nil {
			view.Minyanim = []domain.Minyan{}
		}
		return c.JSON(view)
	}
}

// NextMinyanHandler returns {"next": ...}; next is null when nothing remains today.
func NextMinyanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		next, err := deps.Minyanim.Next(c.UserContext(), c.Query("nusach"))
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(fiber.Map{"next": next})
	}
}

// GetMinyanHandler returns a single minyan by ID.
func GetMinyanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return handleError(c, err)
		}
		m, err := deps.Minyanim.GetByID(c.UserContext(), id)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(m)
	}
}

// MinyanCalendarHandler returns add-to-calendar and directions links.
func MinyanCalendarHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return handleError(c, err)
		}
		links, err := deps.Minyanim.CalendarLinks(c.UserContext(), id)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(links)
	}
}

// SaveMinyanHandler creates or updates a minyan.
func SaveMinyanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m domain.Minyan
		if err := c.BodyParser(&m); err != nil {
			return errBadRequest(c, "invalid minyan body: "+err.Error())
		}
		if err := deps.Minyanim.Save(c.UserContext(), &m); err != nil {
			return handleError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// DeleteMinyanHandler removes a minyan.
func DeleteMinyanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return handleError(c, err)
		}
		if err := deps.Minyanim.Delete(c.UserContext(), id); err != nil {
			return handleError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type reminderBody struct {
	UserID      string `json:"user_id"`
	LeadMinutes int    `json:"lead_minutes"`
}

// ScheduleReminderHandler starts a reminder workflow for the minyan's next occurrence.
func ScheduleReminderHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return handleError(c, err)
		}
		var body reminderBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid reminder body: "+err.Error())
		}
		if deps.Reminders == nil {
			return handleError(c, domain.ErrUnavailable)
		}
		workflowID, err := deps.Reminders.Schedule(c.UserContext(), body.UserID, id, body.LeadMinutes)
		if err != nil {
			return handleError(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"workflow_id": workflowID})
	}
}

// --- synagogues ---

// ListSynagoguesHandler searches by q, or lists one page filtered by nusach.
func ListSynagoguesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if q := c.Query("q"); q != "" {
			if len(q) > 200 {
				return errBadRequest(c, "query too long (max 200 characters)")
			}
			found, err := deps.Synagogues.Search(c.UserContext(), q, c.QueryInt("limit", defaultPageLimit))
			if err != nil {
				return handleError(c, err)
			}
			if found == nil {
				found = []domain.Synagogue{}
			}
			return c.JSON(found)
		}

		offset, limit := pageParams(c)
		page, total, err := deps.Synagogues.List(c.UserContext(), c.Query("nusach"), offset, limit)
		if err != nil {
			return handleError(c, err)
		}
		if page == nil {
			page = []domain.Synagogue{}
		}
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// NearbySynagoguesHandler returns synagogues nearest first within a radius
// of the caller, or of the fallback point when no location is given.
func NearbySynagoguesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := queryLocation(c)
		if err != nil {
			return handleError(c, err)
		}
		radius, err := queryFloat(c, "radius")
		if err != nil {
			return handleError(c, err)
		}
		res, err := deps.Synagogues.Nearby(c.UserContext(), user, radius, c.QueryInt("limit", defaultPageLimit))
		if err != nil {
			return handleError(c, err)
		}
		if res.Synagogues == nil {
			res.Synagogues = []domain.Synagogue{}
		}
		return c.JSON(res)
	}
}

// GetSynagogueHandler returns a single synagogue by ID.
func GetSynagogueHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return handleError(c, err)
		}
		s, err := deps.Synagogues.GetByID(c.UserContext(), id)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(s)
	}
}

// SynagogueNextHandler returns the next few minyanim today at a synagogue.
func SynagogueNextHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return handleError(c, err)
		}
		ms, err := deps.Minyanim.NextAtSynagogue(c.UserContext(), id, c.QueryInt("limit", 2))
		if err != nil {
			return handleError(c, err)
		}
		if ms == nil {
			ms = []domain.Minyan{}
		}
		return c.JSON(ms)
	}
}

// SynagogueScheduleHandler serves the synagogue's weekly minyanim as iCalendar.
func SynagogueScheduleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return handleError(c, err)
		}
		syn, err := deps.Synagogues.GetByID(c.UserContext(), id)
		if err != nil {
			return handleError(c, err)
		}
		feed, err := deps.Minyanim.WeeklyFeed(c.UserContext(), id, syn.Name)
		if err != nil {
			return handleError(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="schedule.ics"`)
		return c.SendString(feed)
	}
}

// --- restaurants ---

// ListRestaurantsHandler returns restaurants matching every supplied filter.
func ListRestaurantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := queryLocation(c)
		if err != nil {
			return handleError(c, err)
		}
		maxDistance, err := queryFloat(c, "max_distance")
		if err != nil {
			return handleError(c, err)
		}
		rs, err := deps.Restaurants.List(c.UserContext(), usecases.RestaurantFilter{
			Search:        c.Query("q"),
			Type:          c.Query("type"),
			Certification: c.Query("certification"),
			PriceRange:    c.Query("price"),
			FavoritesOf:   c.Query("favorites_of"),
			MaxDistance:   maxDistance,
			User:          user,
		})
		if err != nil {
			return handleError(c, err)
		}
		if rs == nil {
			rs = []domain.Restaurant{}
		}
		return c.JSON(rs)
	}
}

// --- favorites ---

// ListFavoritesHandler returns a user's favorites, optionally of one kind.
func ListFavoritesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		favs, err := deps.Favorites.List(c.UserContext(), c.Query("email"), c.Query("type"))
		if err != nil {
			return handleError(c, err)
		}
		if favs == nil {
			favs = []domain.Favorite{}
		}
		return c.JSON(favs)
	}
}

// ToggleFavoriteHandler adds or removes a favorite and reports the new state.
func ToggleFavoriteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f domain.Favorite
		if err := c.BodyParser(&f); err != nil {
			return errBadRequest(c, "invalid favorite body: "+err.Error())
		}
		on, err := deps.Favorites.Toggle(c.UserContext(), f)
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(fiber.Map{"favorite": on})
	}
}

// --- zmanim ---

// GetZmanimHandler returns the selected zmanim for a date.
func GetZmanimHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := deps.Zmanim.ForDate(c.UserContext(), c.Params("date"), splitList(c.Query("keys")))
		if err != nil {
			return handleError(c, err)
		}
		return c.JSON(view)
	}
}

// PutZmanimHandler stores the zmanim of the date in the path.
func PutZmanimHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var z domain.Zmanim
		if err := c.BodyParser(&z); err != nil {
			return errBadRequest(c, "invalid zmanim body: "+err.Error())
		}
		date := c.Params("date")
		if z.Date != "" && strings.TrimSpace(z.Date) != date {
			return errBadRequest(c, "body date does not match path date")
		}
		z.Date = date
		if err := deps.Zmanim.Save(c.UserContext(), &z); err != nil {
			return handleError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
