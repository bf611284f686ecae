package readings

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func at(day string, hour int) time.Time {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		panic(err)
	}
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestSummarizePressureDay(t *testing.T) {
	in := []Reading{
		{Timestamp: at("2025-01-04", 1), Value: 1012},
		{Timestamp: at("2025-01-04", 2), Value: 1015},
		{Timestamp: at("2025-01-04", 3), Value: 1010},
	}

	got := Summarize(in, ByDay, 2)
	want := []SummaryEntry{{Date: "2025-01-04", Min: 1010, Max: 1015, Avg: 1012.33, Count: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSummarizeDropsInvalidAndEmptyGroups(t *testing.T) {
	in := []Reading{
		{Timestamp: at("2025-01-04", 1), Value: math.NaN()},
		{Timestamp: at("2025-01-04", 2), Value: -999},
		{Timestamp: at("2025-01-05", 1), Value: 1001},
		{Timestamp: at("2025-01-05", 2), Value: math.Inf(1)},
	}

	got := Summarize(in, ByDay, 2, -999)
	if len(got) != 1 {
		t.Fatalf("expected a single group, got %+v", got)
	}
	if got[0].Date != "2025-01-05" || got[0].Count != 1 {
		t.Fatalf("unexpected entry %+v", got[0])
	}
}

func TestSummarizeInvariantMinAvgMax(t *testing.T) {
	var in []Reading
	for i := 0; i < 200; i++ {
		day := "2025-02-0" + string(rune('1'+i%7))
		v := 990 + math.Mod(float64(i)*37.7, 41.3)
		in = append(in, Reading{Timestamp: at(day, i%24), Value: v})
	}

	for _, e := range Summarize(in, ByDay, 2) {
		if e.Min > e.Avg || e.Avg > e.Max {
			t.Fatalf("invariant violated for %+v", e)
		}
	}
}

func TestSummarizeSortsNumericKeysNumerically(t *testing.T) {
	in := []Reading{
		{Key: "100", Value: 4},
		{Key: "30", Value: 2},
		{Key: "250", Value: 6},
		{Key: "30", Value: 3},
	}

	got := GroupMean(in, ByField, 2)
	var keys []string
	for _, kv := range got {
		keys = append(keys, kv.Key)
	}
	if !reflect.DeepEqual(keys, []string{"30", "100", "250"}) {
		t.Fatalf("unexpected order %v", keys)
	}
	if got[0].Value != 2.5 {
		t.Fatalf("expected mean 2.5 for height 30, got %v", got[0].Value)
	}
}

func TestRangeFilterIsInclusive(t *testing.T) {
	entries := []SummaryEntry{
		{Date: "2025-01-01"}, {Date: "2025-01-02"}, {Date: "2025-01-03"}, {Date: "2025-01-04"},
	}
	r := Range{Start: "2025-01-02", End: "2025-01-03"}

	got := FilterRange(entries, entryDate, r)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	for _, e := range got {
		if e.Date < r.Start || e.Date > r.End {
			t.Fatalf("entry %s outside of range", e.Date)
		}
	}
}

func TestPaginateCoversSequenceExactlyOnce(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}

	first := Paginate(items, 1, 5)
	if first.TotalPages != 5 || first.TotalItems != 23 {
		t.Fatalf("unexpected page header %+v", first)
	}

	var all []int
	for page := 1; page <= first.TotalPages; page++ {
		all = append(all, Paginate(items, page, 5).Items...)
	}
	if !reflect.DeepEqual(all, items) {
		t.Fatalf("pages do not reproduce the input: %v", all)
	}

	if past := Paginate(items, 9, 5); len(past.Items) != 0 || past.TotalPages != 5 {
		t.Fatalf("expected empty page past the end, got %+v", past)
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	res := Pipeline{Key: ByDay, Precision: 2}.Run(nil, 1)
	if len(res.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(res.Entries))
	}
	if !res.Page.Empty() || res.Page.TotalPages != 0 {
		t.Fatalf("expected empty zero-page result, got %+v", res.Page)
	}
	if res.Page.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", res.Page.PageSize)
	}
}

func TestPipelineRangeAndPage(t *testing.T) {
	var in []Reading
	for d := 1; d <= 9; d++ {
		day := "2025-03-0" + string(rune('0'+d))
		in = append(in, Reading{Timestamp: at(day, 0), Value: float64(1000 + d)})
	}

	p := Pipeline{Key: ByDay, Precision: 2, Range: Range{Start: "2025-03-03", End: "2025-03-07"}, PageSize: 2}
	res := p.Run(in, 3)

	if len(res.Entries) != 5 {
		t.Fatalf("expected 5 entries in range, got %d", len(res.Entries))
	}
	if res.Page.TotalPages != 3 || len(res.Page.Items) != 1 || res.Page.Items[0].Date != "2025-03-07" {
		t.Fatalf("unexpected last page %+v", res.Page)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1012.5", 1012.5, true},
		{" 7 ", 7, true},
		{"*", 0, false},
		{"", 0, false},
		{"N/A", 0, false},
		{"NaN", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseValue(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseValue(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRound(t *testing.T) {
	if got := Round(1012.3333, 2); got != 1012.33 {
		t.Fatalf("expected 1012.33, got %v", got)
	}
	if got := Round(187.25, 1); got != 187.3 {
		t.Fatalf("expected 187.3, got %v", got)
	}
}

func TestPaginateHugePageDoesNotOverflow(t *testing.T) {
	got := Paginate([]int{1, 2, 3}, 922337203685477582, 10)
	if len(got.Items) != 0 || got.TotalPages != 1 || got.TotalItems != 3 {
		t.Fatalf("expected empty page past the end, got %+v", got)
	}
}

func TestWindowFiltersSortsAndPages(t *testing.T) {
	items := []SummaryEntry{
		{Date: "2025-02-03"}, {Date: "2024-02-10"}, {Date: "2025-01-31"}, {Date: "2025-02-01"}, {Date: "2025-03-01"},
	}
	w := Window[SummaryEntry]{
		Key:      entryDate,
		Range:    Range{Start: "2024-01-01", End: "2025-02-28"},
		Keep:     func(e SummaryEntry) bool { return e.Date[5:7] == "02" },
		PageSize: 2,
	}

	res := w.Apply(items, 2)
	var dates []string
	for _, e := range res.Entries {
		dates = append(dates, e.Date)
	}
	if !reflect.DeepEqual(dates, []string{"2024-02-10", "2025-02-01", "2025-02-03"}) {
		t.Fatalf("unexpected entries %v", dates)
	}
	if res.Page.TotalPages != 2 || len(res.Page.Items) != 1 || res.Page.Items[0].Date != "2025-02-03" {
		t.Fatalf("unexpected page %+v", res.Page)
	}
	if items[0].Date != "2025-02-03" {
		t.Fatal("input must not be reordered")
	}
}
