package readings

import (
	"math"
	"slices"
	"strconv"
)

// DefaultPageSize is used when a pipeline or page request does not set one.
const DefaultPageSize = 10

// Range is an inclusive key range. An empty bound is open.
type Range struct {
	Start string
	End   string
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Contains reports whether start <= key <= end.
func (r Range) Contains(key string) bool {
	if r.Start != "" && CompareKeys(key, r.Start) < 0 {
		return false
	}
	if r.End != "" && CompareKeys(key, r.End) > 0 {
		return false
	}
	return true
}

// CompareKeys orders numeric keys (heights) numerically and everything else
// lexically. ISO day and month keys sort correctly as strings.
func CompareKeys(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type accumulator struct {
	min, max, sum float64
	n             int
}

func (a *accumulator) add(v float64) {
	if a.n == 0 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	a.sum += v
	a.n++
}

func group(in []Reading, key KeyFunc, sentinels []float64) (map[string]*accumulator, []string) {
	if key == nil {
		key = ByField
	}
	groups := make(map[string]*accumulator)
	var keys []string
	for _, r := range in {
		if !Valid(r.Value, sentinels...) {
			continue
		}
		k := key(r)
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
			keys = append(keys, k)
		}
		acc.add(r.Value)
	}
	slices.SortFunc(keys, CompareKeys)
	return groups, keys
}

// Summarize drops invalid readings, groups the rest by key and reduces each
// group to min, max and mean rounded to precision. Entries are sorted by key.
func Summarize(in []Reading, key KeyFunc, precision int, sentinels ...float64) []SummaryEntry {
	groups, keys := group(in, key, sentinels)
	out := make([]SummaryEntry, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		out = append(out, SummaryEntry{
			Date:  k,
			Min:   Round(acc.min, precision),
			Max:   Round(acc.max, precision),
			Avg:   Round(acc.sum/float64(acc.n), precision),
			Count: acc.n,
		})
	}
	return out
}

// GroupMean is Summarize reduced to the mean only.
func GroupMean(in []Reading, key KeyFunc, precision int, sentinels ...float64) []KeyedValue {
	groups, keys := group(in, key, sentinels)
	out := make([]KeyedValue, 0, len(keys))
	for _, k := range keys {
		acc := groups[k]
		out = append(out, KeyedValue{
			Key:   k,
			Value: Round(acc.sum/float64(acc.n), precision),
			Count: acc.n,
		})
	}
	return out
}

// FilterRange keeps the items whose key falls within r. The input is not
// modified.
func FilterRange[T any](items []T, key func(T) string, r Range) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if r.Contains(key(it)) {
			out = append(out, it)
		}
	}
	return out
}

// SortByKey returns a copy of items sorted ascending by key.
func SortByKey[T any](items []T, key func(T) string) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		return CompareKeys(key(a), key(b))
	})
	return out
}

// Window filters an ordered sequence to an inclusive key range, sorts it by
// key and cuts the requested page out of it. Keep, when set, drops items the
// range cannot express (e.g. a month across years).
type Window[T any] struct {
	Key      func(T) string
	Range    Range
	Keep     func(T) bool
	PageSize int
}

// Result holds the full filtered sequence and the requested page of it.
type Result[T any] struct {
	Entries []T     `json:"entries"`
	Page    Page[T] `json:"page"`
}

// Apply runs the window over items and returns the 1-based page.
func (w Window[T]) Apply(items []T, page int) Result[T] {
	out := items
	if !w.Range.IsZero() {
		out = FilterRange(out, w.Key, w.Range)
	}
	if w.Keep != nil {
		kept := make([]T, 0, len(out))
		for _, it := range out {
			if w.Keep(it) {
				kept = append(kept, it)
			}
		}
		out = kept
	}
	out = SortByKey(out, w.Key)
	return Result[T]{
		Entries: out,
		Page:    Paginate(out, page, w.PageSize),
	}
}

// Pipeline is the shared aggregate, filter, sort and paginate step every
// dashboard view runs on its readings.
type Pipeline struct {
	Key       KeyFunc
	Precision int
	Range     Range
	PageSize  int
}

// Run executes the pipeline and returns the requested 1-based page.
func (p Pipeline) Run(in []Reading, page int) Result[SummaryEntry] {
	w := Window[SummaryEntry]{Key: entryDate, Range: p.Range, PageSize: p.PageSize}
	return w.Apply(Summarize(in, p.Key, p.Precision), page)
}

func entryDate(e SummaryEntry) string { return e.Date }
