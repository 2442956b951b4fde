package httpapi

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/wildmap/sightings-aggregation/internal/geo"
	"github.com/wildmap/sightings-aggregation/internal/sightings"
)

var validate = validator.New()

// Closed set of user-facing failure messages; internal detail stays in logs.
const (
	msgAggregationFailed = "failed to aggregate observations"
	msgLookupFailed      = "failed to fetch observation"
	msgLookupUnsupported = "provider does not support direct observation lookup"
	msgMethodNotAllowed  = "method not allowed"
)

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *sightings.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/observations", func(c *fiber.Ctx) error {
		req, err := parseObservationsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		obs, err := service.Nearby(c.Context(), req.viewport, req.filters)
		if err != nil {
			log.Printf("observations request failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, msgAggregationFailed)
		}

		return c.JSON(fiber.Map{"observations": obs})
	})

	v1.Get("/observations/:id", func(c *fiber.Ctx) error {
		obs, err := service.Lookup(c.Context(), c.Params("id"))
		if err != nil {
			switch {
			case errors.Is(err, sightings.ErrMalformedID), errors.Is(err, sightings.ErrUnknownProvider):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			case errors.Is(err, sightings.ErrUnsupportedLookup):
				return fiber.NewError(fiber.StatusNotImplemented, msgLookupUnsupported)
			case errors.Is(err, sightings.ErrNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			default:
				log.Printf("observation lookup failed: %v", err)
				return fiber.NewError(fiber.StatusInternalServerError, msgLookupFailed)
			}
		}

		return c.JSON(obs)
	})

	// Registered after the GET handlers so they only catch other methods.
	v1.All("/observations", methodNotAllowed)
	v1.All("/observations/:id", methodNotAllowed)
}

func methodNotAllowed(c *fiber.Ctx) error {
	return fiber.NewError(fiber.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// observationsRequest is the parsed and validated aggregation request.
type observationsRequest struct {
	viewport geo.Viewport
	filters  sightings.FilterParams
}

// viewportQuery validates the required geometry parameters.
type viewportQuery struct {
	Lat      float64 `validate:"latitude"`
	Lng      float64 `validate:"longitude"`
	LatDelta float64 `validate:"gt=0"`
	LngDelta float64 `validate:"gt=0"`
}

func parseObservationsQuery(c *fiber.Ctx) (observationsRequest, error) {
	var req observationsRequest

	var vq viewportQuery
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"lat", &vq.Lat},
		{"lng", &vq.Lng},
		{"latDelta", &vq.LatDelta},
		{"lngDelta", &vq.LngDelta},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			return req, fmt.Errorf("missing required query parameter %q", p.name)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("query parameter %q must be a number", p.name)
		}
		*p.dst = f
	}

	if err := validate.Struct(vq); err != nil {
		return req, err
	}

	req.viewport = geo.Viewport{
		CenterLat: vq.Lat,
		CenterLng: vq.Lng,
		LatDelta:  vq.LatDelta,
		LngDelta:  vq.LngDelta,
	}

	filters, err := parseFilterQuery(c)
	if err != nil {
		return req, err
	}
	req.filters = filters

	return req, nil
}

func parseFilterQuery(c *fiber.Ctx) (sightings.FilterParams, error) {
	var f sightings.FilterParams

	switch recency := c.Query("recency"); sightings.RecencyWindow(recency) {
	case sightings.RecencyDefault, sightings.RecencyToday, sightings.RecencyThisWeek, sightings.RecencyThisMonth:
		f.Recency = sightings.RecencyWindow(recency)
	default:
		return f, fmt.Errorf("invalid recency %q: use today, this_week or this_month", recency)
	}

	if raw := c.Query("hasPhoto"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, fmt.Errorf("query parameter %q must be a boolean", "hasPhoto")
		}
		f.HasPhoto = &b
	}

	if raw := c.Query("taxa"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			bucket, ok := sightings.ParseTaxaBucket(strings.TrimSpace(name))
			if !ok {
				return f, fmt.Errorf("unknown taxa bucket %q", name)
			}
			f.Taxa = append(f.Taxa, bucket)
		}
	}

	if raw := c.Query("provider"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			tag, ok := sightings.ParseProviderTag(strings.TrimSpace(name))
			if !ok {
				return f, fmt.Errorf("unknown provider %q", name)
			}
			f.Providers = append(f.Providers, tag)
		}
	}

	return f, nil
}
