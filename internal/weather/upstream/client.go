package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/meteo-dashboard/internal/common"
	"github.com/i474232898/meteo-dashboard/internal/weather"
)

// maxPlotBytes bounds the image proxied from /sodar-plot.
const maxPlotBytes = 16 << 20

// Client implements weather.Source against the dashboard data API.
type Client struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

var _ weather.Source = (*Client)(nil)

// NewClient creates a data API client rooted at baseURL.
func NewClient(client *http.Client, baseURL string, backoff BackoffConfig) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "data-api",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		// A 4xx such as a missing date says nothing about the API's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errUnexpected)
		},
	})

	return &Client{
		name:    "data-api",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: backoff,
		},
		circuit: cb,
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) get(ctx context.Context, path string, values url.Values) (*http.Response, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u := c.baseURL + path
		if len(values) > 0 {
			u = fmt.Sprintf("%s?%s", u, values.Encode())
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, values url.Values, out any) error {
	resp, err := c.get(ctx, path, values)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func dateQuery(date string) url.Values {
	if date == "" {
		return nil
	}
	return url.Values{"date": []string{date}}
}

// PressureReadings calls GET /data.
func (c *Client) PressureReadings(ctx context.Context, date string) ([]weather.PressureReading, error) {
	var payload struct {
		Data []weather.PressureReading `json:"data"`
	}
	if err := c.getJSON(ctx, "/data", dateQuery(date), &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// PressureSummaries calls GET /stacked-graph.
func (c *Client) PressureSummaries(ctx context.Context) ([]weather.PressureSummary, error) {
	var payload struct {
		Data []weather.PressureSummary `json:"data"`
	}
	if err := c.getJSON(ctx, "/stacked-graph", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// SodarReadings calls GET /sodar-data. The endpoint answers with a bare
// array; an object wrapping it in "data" is accepted too.
func (c *Client) SodarReadings(ctx context.Context, date string) ([]weather.SodarReading, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/sodar-data", dateQuery(date), &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var out []weather.SodarReading
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode /sodar-data: %w", err)
		}
	case '{':
		var payload struct {
			Data []weather.SodarReading `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, fmt.Errorf("decode /sodar-data: %w", err)
		}
		out = payload.Data
	}
	return out, nil
}

// WindSummaries calls GET /sodar-summary.
func (c *Client) WindSummaries(ctx context.Context) ([]weather.WindSummary, error) {
	var payload struct {
		Data []weather.WindSummary `json:"data"`
	}
	if err := c.getJSON(ctx, "/sodar-summary", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// SodarPlot calls GET /sodar-plot and returns the image as served.
func (c *Client) SodarPlot(ctx context.Context, date string) (weather.Plot, error) {
	resp, err := c.get(ctx, "/sodar-plot", dateQuery(date))
	if err != nil {
		return weather.Plot{}, err
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if !common.ContainsAnyFold(ct, "image/") {
		return weather.Plot{}, fmt.Errorf("GET /sodar-plot: unexpected content type %q", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPlotBytes))
	if err != nil {
		return weather.Plot{}, fmt.Errorf("read /sodar-plot: %w", err)
	}
	return weather.Plot{ContentType: ct, Data: data}, nil
}
