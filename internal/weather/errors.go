package weather

import "errors"

var (
	// ErrNoData is returned when the data API answered but had nothing
	// usable for the request.
	ErrNoData = errors.New("no data available")

	// ErrUnavailable wraps network and data API failures.
	ErrUnavailable = errors.New("data api unavailable")

	// ErrInvalidQuery is returned for malformed dates or ranges.
	ErrInvalidQuery = errors.New("invalid query")
)
