package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/meteo-dashboard/internal/barometer"
	"github.com/i474232898/meteo-dashboard/internal/readings"
	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// PressureStore reads imported barometer samples.
type PressureStore interface {
	ByDate(ctx context.Context, day time.Time) ([]barometer.Sample, error)
	Range(ctx context.Context, from, to time.Time) ([]barometer.Sample, error)
}

// WindStore reads imported SODAR observations.
type WindStore interface {
	Day(ctx context.Context, day time.Time) ([]weather.SodarReading, error)
	All(ctx context.Context) ([]weather.SodarReading, error)
}

// RegisterSourceRoutes serves the data API the dashboard consumes from the
// local importers' stores. A nil store leaves its routes out.
func RegisterSourceRoutes(app *fiber.App, pressure PressureStore, wind WindStore) {
	if pressure != nil {
		app.Get("/data", func(c *fiber.Ctx) error {
			var (
				samples []barometer.Sample
				err     error
			)
			if date := c.Query("date"); date != "" {
				day, perr := time.Parse(readings.DayLayout, date)
				if perr != nil {
					return fiber.NewError(fiber.StatusBadRequest, "date query parameter must be YYYY-MM-DD")
				}
				samples, err = pressure.ByDate(c.UserContext(), day)
			} else {
				samples, err = pressure.Range(c.UserContext(), time.Time{}, time.Time{})
			}
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read barometer data")
			}
			return c.JSON(fiber.Map{"data": barometer.ToReadings(samples)})
		})

		app.Get("/stacked-graph", func(c *fiber.Ctx) error {
			samples, err := pressure.Range(c.UserContext(), time.Time{}, time.Time{})
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read barometer data")
			}
			return c.JSON(fiber.Map{"data": weather.SummarizePressure(barometer.ToReadings(samples))})
		})
	}

	if wind != nil {
		app.Get("/sodar-data", func(c *fiber.Ctx) error {
			q, err := parseDayQuery(c)
			if err != nil {
				return err
			}
			day, _ := time.Parse(readings.DayLayout, q.Date)
			rs, err := wind.Day(c.UserContext(), day)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read sodar data")
			}
			if rs == nil {
				rs = []weather.SodarReading{}
			}
			return c.JSON(rs)
		})

		app.Get("/sodar-summary", func(c *fiber.Ctx) error {
			rs, err := wind.All(c.UserContext())
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to read sodar data")
			}
			return c.JSON(fiber.Map{"data": weather.SummarizeWind(rs)})
		})
	}
}
