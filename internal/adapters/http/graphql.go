package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/kehillah/internal/core/domain"
	"github.com/samirrijal/kehillah/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	minyanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Minyan",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"synagogue_id":   &graphql.Field{Type: graphql.String},
			"synagogue_name": &graphql.Field{Type: graphql.String},
			"prayer_type":    &graphql.Field{Type: graphql.String},
			"nusach":         &graphql.Field{Type: graphql.String},
			"days": &graphql.Field{
				Type: graphql.NewList(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					m, err := minyanSource(p.Source)
					if err != nil {
						return nil, err
					}
					return domain.WeekdayLabels(m.Days), nil
				},
			},
			"time": &graphql.Field{
				Type:        graphql.String,
				Description: "24-hour HH:MM",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					m, err := minyanSource(p.Source)
					if err != nil {
						return nil, err
					}
					return m.Time.String(), nil
				},
			},
			"display_time": &graphql.Field{
				Type:        graphql.String,
				Description: "12-hour h:MM AM/PM",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					m, err := minyanSource(p.Source)
					if err != nil {
						return nil, err
					}
					return m.Time.Format12h(), nil
				},
			},
			"address":  &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"distance": &graphql.Field{Type: graphql.Float},
			"active":   &graphql.Field{Type: graphql.Boolean},
		},
	})

	upcomingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Upcoming",
		Fields: graphql.Fields{
			"minyan": &graphql.Field{Type: minyanType},
			"day": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					switch u := p.Source.(type) {
					case *domain.Upcoming:
						if u != nil {
							return u.Day.String(), nil
						}
					case domain.Upcoming:
						return u.Day.String(), nil
					}
					return nil, nil
				},
			},
			"starts_at":     &graphql.Field{Type: graphql.DateTime},
			"minutes_until": &graphql.Field{Type: graphql.Int},
		},
	})

	todayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TodayView",
		Fields: graphql.Fields{
			"day": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if v, ok := p.Source.(*usecases.TodayView); ok {
						return v.Day.String(), nil
					}
					return nil, nil
				},
			},
			"now":               &graphql.Field{Type: graphql.DateTime},
			"minyanim":          &graphql.Field{Type: graphql.NewList(minyanType)},
			"next":              &graphql.Field{Type: upcomingType},
			"reference":         &graphql.Field{Type: geoPointType},
			"fallback_location": &graphql.Field{Type: graphql.Boolean},
		},
	})

	synagogueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Synagogue",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"address":  &graphql.Field{Type: graphql.String},
			"rabbi":    &graphql.Field{Type: graphql.String},
			"nusach":   &graphql.Field{Type: graphql.String},
			"phone":    &graphql.Field{Type: graphql.String},
			"website":  &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
			"distance": &graphql.Field{Type: graphql.Float},
		},
	})

	nearbyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbySynagogues",
		Fields: graphql.Fields{
			"reference":         &graphql.Field{Type: geoPointType},
			"fallback_location": &graphql.Field{Type: graphql.Boolean},
			"radius_miles":      &graphql.Field{Type: graphql.Float},
			"synagogues":        &graphql.Field{Type: graphql.NewList(synagogueType)},
		},
	})

	restaurantType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Restaurant",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"type":          &graphql.Field{Type: graphql.String},
			"certification": &graphql.Field{Type: graphql.String},
			"price_range":   &graphql.Field{Type: graphql.String},
			"address":       &graphql.Field{Type: graphql.String},
			"phone":         &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: geoPointType},
			"distance":      &graphql.Field{Type: graphql.Float},
		},
	})

	zmanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Zman",
		Fields: graphql.Fields{
			"key": &graphql.Field{Type: graphql.String},
			"time": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if z, ok := p.Source.(domain.ZmanTime); ok {
						return z.Time.String(), nil
					}
					return nil, nil
				},
			},
		},
	})

	zmanimType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Zmanim",
		Fields: graphql.Fields{
			"date":        &graphql.Field{Type: graphql.String},
			"hebrew_date": &graphql.Field{Type: graphql.String},
			"daf_yomi":    &graphql.Field{Type: graphql.String},
			"times":       &graphql.Field{Type: graphql.NewList(zmanType)},
		},
	})

	locationArgs := func(extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
		extra["lat"] = &graphql.ArgumentConfig{Type: graphql.Float}
		extra["lon"] = &graphql.ArgumentConfig{Type: graphql.Float}
		return extra
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"minyanimToday": &graphql.Field{
				Type:        todayType,
				Description: "Today's minyanim with the next upcoming one",
				Args: locationArgs(graphql.FieldConfigArgument{
					"nusach": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"filter": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: usecases.FilterAll},
					"email":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				}),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					user, err := argLocation(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Minyanim.Today(p.Context, usecases.MinyanFilter{
						Nusach: p.Args["nusach"].(string),
						Quick:  p.Args["filter"].(string),
						User:   user,
						Email:  p.Args["email"].(string),
					})
				},
			},
			"nextMinyan": &graphql.Field{
				Type:        upcomingType,
				Description: "The next minyan starting after now, or null",
				Args: graphql.FieldConfigArgument{
					"nusach": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					next, err := deps.Minyanim.Next(p.Context, p.Args["nusach"].(string))
					if err != nil || next == nil {
						return nil, err
					}
					return next, nil
				},
			},
			"synagoguesNearby": &graphql.Field{
				Type:        nearbyType,
				Description: "Synagogues nearest first within a radius in miles",
				Args: locationArgs(graphql.FieldConfigArgument{
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPageLimit},
				}),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					user, err := argLocation(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Synagogues.Nearby(p.Context, user, p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"synagogue": &graphql.Field{
				Type:        synagogueType,
				Description: "Get a synagogue by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Synagogues.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"restaurants": &graphql.Field{
				Type:        graphql.NewList(restaurantType),
				Description: "Kosher restaurants, nearest first when a distance applies",
				Args: locationArgs(graphql.FieldConfigArgument{
					"type":         &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"max_distance": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				}),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					user, err := argLocation(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Restaurants.List(p.Context, usecases.RestaurantFilter{
						Type:        p.Args["type"].(string),
						MaxDistance: p.Args["max_distance"].(float64),
						User:        user,
					})
				},
			},
			"zmanim": &graphql.Field{
				Type:        zmanimType,
				Description: "Selected zmanim for a date (YYYY-MM-DD)",
				Args: graphql.FieldConfigArgument{
					"date": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"keys": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					var keys []string
					if raw, ok := p.Args["keys"].([]any); ok {
						for _, k := range raw {
							if s, ok := k.(string); ok {
								keys = append(keys, s)
							}
						}
					}
					return deps.Zmanim.ForDate(p.Context, p.Args["date"].(string), keys)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func minyanSource(src any) (domain.Minyan, error) {
	switch m := src.(type) {
	case domain.Minyan:
		return m, nil
	case *domain.Minyan:
		if m != nil {
			return *m, nil
		}
	}
	return domain.Minyan{}, fmt.Errorf("unexpected minyan source %T", src)
}

// argLocation applies the REST rule: both coordinates or neither.
func argLocation(args map[string]any) (*domain.GeoPoint, error) {
	lat, hasLat := args["lat"].(float64)
	lon, hasLon := args["lon"].(float64)
	if !hasLat && !hasLon {
		return nil, nil
	}
	if !hasLat || !hasLon {
		return nil, &domain.ValidationError{Field: "lat/lon", Reason: "both coordinates are required together"}
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
