package sodar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultURLTemplate is where the SODAR host publishes daily files.
const DefaultURLTemplate = "https://meteo777.pythonanywhere.com/sodar/data/{date}.txt"

// Downloader fetches daily SODAR files.
type Downloader struct {
	Client      *http.Client
	URLTemplate string
}

// URL returns the file URL for day.
func (d Downloader) URL(day time.Time) string {
	tmpl := d.URLTemplate
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	return strings.ReplaceAll(tmpl, "{date}", FileName(day))
}

// Fetch downloads and parses the file of day.
func (d Downloader) Fetch(ctx context.Context, day time.Time) (Result, error) {
	u := d.URL(day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Result{}, err
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get %s: %w", u, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return Result{}, fmt.Errorf("failed to get %s: status code %d %s", u, res.StatusCode, res.Status)
	}

	out, err := Parse(res.Body, day)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse %s: %w", u, err)
	}
	return out, nil
}
