package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/meteo-dashboard/internal/common"
	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// dayQuery selects a single calendar day.
type dayQuery struct {
	Date string `query:"date" validate:"required,datetime=2006-01-02"`
}

func parseDayQuery(c *fiber.Ctx) (dayQuery, error) {
	q := dayQuery{Date: c.Query("date")}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, "date query parameter must be YYYY-MM-DD")
	}
	return q, nil
}

// summaryQuery holds query parameters of the summary tables.
type summaryQuery struct {
	Month    int    `query:"month" validate:"min=0,max=12"`
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Page     int    `query:"page" validate:"min=1,max=100000"`
	PageSize int    `query:"pageSize" validate:"min=0,max=100"`
}

func parseSummaryQuery(c *fiber.Ctx) (summaryQuery, error) {
	q := summaryQuery{Page: 1}
	if err := c.QueryParser(&q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if q.From != "" && q.To != "" && q.From > q.To {
		return q, fiber.NewError(fiber.StatusBadRequest, "from must not be after to")
	}
	return q, nil
}

func (q summaryQuery) toService() weather.SummaryQuery {
	return weather.SummaryQuery{
		Month:    q.Month,
		From:     q.From,
		To:       q.To,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
}

type formatQuery struct {
	Format string `validate:"required,oneof=csv pdf"`
}

func parseFormat(c *fiber.Ctx) (string, error) {
	q := formatQuery{Format: c.Query("format", "csv")}
	if err := validate.Struct(q); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "format must be csv or pdf")
	}
	return q.Format, nil
}

// parseRange reads optional from/to bounds. A bare day in "to" covers the
// whole day.
func parseRange(c *fiber.Ctx) (from, to time.Time, err error) {
	if s := c.Query("from"); s != "" {
		if from, err = common.ParseTime(s); err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if s := c.Query("to"); s != "" {
		if to, err = common.ParseTime(s); err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		to = common.EndOfDay(s, to)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fiber.NewError(fiber.StatusBadRequest, "from must not be after to")
	}
	return from, to, nil
}

// historyQuery holds parameters of the snapshot history endpoint.
type historyQuery struct {
	Key  string    `validate:"required,oneof=pressure-summary wind-summary"`
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	h.Key = c.Params("key")

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := common.ParseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := common.ParseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = common.EndOfDay(toStr, to)
	return nil
}
