package httpapi

import (
	"bytes"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/meteo-dashboard/internal/common"
	"github.com/i474232898/meteo-dashboard/internal/export"
	"github.com/i474232898/meteo-dashboard/internal/store"
	"github.com/i474232898/meteo-dashboard/internal/weather"
)

var validate = validator.New()

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// serviceError maps service errors onto HTTP statuses. ErrNoData becomes a
// 404 so clients show their "No data available" state; a day with data but
// too little to chart is a 422.
func serviceError(err error) error {
	switch {
	case errors.Is(err, weather.ErrInvalidQuery):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, weather.ErrNoData):
		return fiber.NewError(fiber.StatusNotFound, weather.ErrNoData.Error())
	case errors.Is(err, export.ErrTooFewPoints):
		return fiber.NewError(fiber.StatusUnprocessableEntity, export.ErrTooFewPoints.Error())
	case errors.Is(err, weather.ErrUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, weather.ErrUnavailable.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build dashboard view")
	}
}

// RegisterRoutes wires the dashboard handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/pressure/day", func(c *fiber.Ctx) error {
		q, err := parseDayQuery(c)
		if err != nil {
			return err
		}
		day, err := service.PressureDay(c.UserContext(), q.Date)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(day)
	})

	v1.Get("/pressure/chart.png", func(c *fiber.Ctx) error {
		q, err := parseDayQuery(c)
		if err != nil {
			return err
		}
		day, err := service.PressureDay(c.UserContext(), q.Date)
		if err != nil {
			return serviceError(err)
		}
		var buf bytes.Buffer
		if err := export.PressureChart(&buf, q.Date, day.Readings); err != nil {
			return serviceError(err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})

	v1.Get("/pressure/summary", func(c *fiber.Ctx) error {
		q, err := parseSummaryQuery(c)
		if err != nil {
			return err
		}
		page, err := service.PressureSummary(c.UserContext(), q.toService())
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(page)
	})

	v1.Get("/pressure/summary/export", func(c *fiber.Ctx) error {
		q, err := parseSummaryQuery(c)
		if err != nil {
			return err
		}
		format, err := parseFormat(c)
		if err != nil {
			return err
		}
		all, err := service.PressureSummaries(c.UserContext(), q.toService())
		if err != nil {
			return serviceError(err)
		}
		return sendTable(c, format, export.PressureSummaryTable(all))
	})

	v1.Get("/pressure/raw/export", func(c *fiber.Ctx) error {
		format, err := parseFormat(c)
		if err != nil {
			return err
		}
		from, to, err := parseRange(c)
		if err != nil {
			return err
		}
		raw, err := service.PressureRaw(c.UserContext(), from, to)
		if err != nil {
			return serviceError(err)
		}
		return sendTable(c, format, export.RawPressureTable(raw))
	})

	v1.Get("/pressure/heatmap", func(c *fiber.Ctx) error {
		q, err := parseSummaryQuery(c)
		if err != nil {
			return err
		}
		cells, err := service.PressureHeatmap(c.UserContext(), q.From, q.To)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(fiber.Map{"cells": cells})
	})

	v1.Get("/wind/day", func(c *fiber.Ctx) error {
		q, err := parseDayQuery(c)
		if err != nil {
			return err
		}
		day, err := service.WindDay(c.UserContext(), q.Date)
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(day)
	})

	v1.Get("/wind/chart.png", func(c *fiber.Ctx) error {
		q, err := parseDayQuery(c)
		if err != nil {
			return err
		}
		day, err := service.WindDay(c.UserContext(), q.Date)
		if err != nil {
			return serviceError(err)
		}
		var buf bytes.Buffer
		if err := export.SpeedHeightChart(&buf, q.Date, day.Profile); err != nil {
			return serviceError(err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(buf.Bytes())
	})

	v1.Get("/wind/plot", func(c *fiber.Ctx) error {
		q, err := parseDayQuery(c)
		if err != nil {
			return err
		}
		plot, err := service.SodarPlot(c.UserContext(), q.Date)
		if err != nil {
			return serviceError(err)
		}
		if !common.ContainsAnyFold(plot.ContentType, "image/") {
			return fiber.NewError(fiber.StatusBadGateway, "data api returned a non-image plot")
		}
		c.Set(fiber.HeaderContentType, plot.ContentType)
		return c.Send(plot.Data)
	})

	v1.Get("/wind/summary", func(c *fiber.Ctx) error {
		q, err := parseSummaryQuery(c)
		if err != nil {
			return err
		}
		page, err := service.WindSummary(c.UserContext(), q.toService())
		if err != nil {
			return serviceError(err)
		}
		return c.JSON(page)
	})

	v1.Get("/wind/summary/export", func(c *fiber.Ctx) error {
		q, err := parseSummaryQuery(c)
		if err != nil {
			return err
		}
		format, err := parseFormat(c)
		if err != nil {
			return err
		}
		all, err := service.WindSummaries(c.UserContext(), q.toService())
		if err != nil {
			return serviceError(err)
		}
		return sendTable(c, format, export.WindSummaryTable(all))
	})

	v1.Get("/snapshots/:key", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snaps, err := service.SnapshotHistory(req.Key, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no snapshots for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read snapshots")
		}

		out := make([]snapshotInfo, 0, len(snaps))
		for _, s := range snaps {
			out = append(out, snapshotInfo{Seq: s.Seq, FetchedAt: s.FetchedAt, Entries: len(s.Pressure) + len(s.Wind)})
		}
		return c.JSON(fiber.Map{
			"key":       req.Key,
			"from":      req.From,
			"to":        req.To,
			"snapshots": out,
		})
	})
}

type snapshotInfo struct {
	Seq       uint64    `json:"seq"`
	FetchedAt time.Time `json:"fetchedAt"`
	Entries   int       `json:"entries"`
}

func sendTable(c *fiber.Ctx, format string, t export.Table) error {
	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "pdf":
		err = export.WritePDF(&buf, t)
		contentType = "application/pdf"
	default:
		err = export.WriteCSV(&buf, t)
		contentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to export table")
	}

	c.Attachment(t.Filename + "." + format)
	c.Set(fiber.HeaderContentType, contentType)
	c.Set("X-Export-ID", uuid.NewString())
	return c.Send(buf.Bytes())
}
