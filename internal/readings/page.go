package readings

// Page is one fixed-size slice of an ordered sequence.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// Empty reports whether the underlying sequence had no items at all, which
// callers render as a "no data" state rather than an empty table.
func (p Page[T]) Empty() bool {
	return p.TotalItems == 0
}

// Paginate slices items into pages of size and returns the 1-based page.
// Pages below 1 are clamped to 1; pages past the end have no items.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	total := len(items)
	pages := (total + size - 1) / size

	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		TotalItems: total,
	}

	if page > pages {
		return p
	}
	offset := (page - 1) * size
	end := min(offset+size, total)
	p.Items = items[offset:end:end]
	return p
}
